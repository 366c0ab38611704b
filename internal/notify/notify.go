// Package notify posts operator notices about megathread rotations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"

	"submanager/internal/config"
)

// Telegram sends operator notices to a Telegram chat. A misconfigured
// or disabled notifier never fails a run, problems are only logged.
type Telegram struct {
	client  *tgbot.Bot
	chatID  string
	logger  *slog.Logger
	initErr error
}

// NewTelegram creates the Telegram rotation notifier.
// Params: telegram notify config and logger.
// Returns: notifier, or nil when the channel is disabled.
func NewTelegram(cfg config.TelegramConfig, logger *slog.Logger) *Telegram {
	if !cfg.Enabled {
		return nil
	}
	notifier := &Telegram{
		chatID: strings.TrimSpace(cfg.ChatID),
		logger: logger,
	}

	if strings.TrimSpace(cfg.BotToken) == "" {
		notifier.initErr = errors.New("telegram bot token is required")
		return notifier
	}
	if notifier.chatID == "" {
		notifier.initErr = errors.New("telegram chat_id is required")
		return notifier
	}

	options := []tgbot.Option{tgbot.WithSkipGetMe()}
	if strings.TrimSpace(cfg.APIBase) != "" {
		options = append(options, tgbot.WithServerURL(strings.TrimRight(cfg.APIBase, "/")))
	}
	botClient, err := tgbot.New(cfg.BotToken, options...)
	if err != nil {
		notifier.initErr = fmt.Errorf("init telegram bot: %w", err)
		return notifier
	}
	notifier.client = botClient
	return notifier
}

// NotifyRotation posts a notice about a freshly created megathread.
// Params: megathread description, rendered post title and post URL.
// Returns: nothing; delivery failures are logged.
func (n *Telegram) NotifyRotation(ctx context.Context, description, title, url string) {
	if n.initErr != nil {
		n.logger.Warn("telegram notifier unavailable", "error", n.initErr.Error())
		return
	}

	message := fmt.Sprintf("New megathread posted for %s:\n%s\n%s", description, title, url)
	if err := n.send(ctx, message); err != nil {
		n.logger.Error("telegram rotation notice failed", "megathread", description, "error", err.Error())
		return
	}
	n.logger.Info("telegram rotation notice sent", "megathread", description)
}

// NotifyFailure posts a notice about a failed manager run.
// Params: the run error.
// Returns: nothing; delivery failures are logged.
func (n *Telegram) NotifyFailure(ctx context.Context, runErr error) {
	if n.initErr != nil {
		n.logger.Warn("telegram notifier unavailable", "error", n.initErr.Error())
		return
	}

	message := fmt.Sprintf("Manager run failed:\n%s", runErr.Error())
	if err := n.send(ctx, message); err != nil {
		n.logger.Error("telegram failure notice failed", "error", err.Error())
	}
}

func (n *Telegram) send(ctx context.Context, text string) error {
	_, err := n.client.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	return err
}
