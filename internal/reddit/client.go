package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"submanager/internal/config"
	"submanager/internal/domain"
)

const (
	authBaseURL = "https://www.reddit.com"
	apiBaseURL  = "https://oauth.reddit.com"

	// Tokens are refreshed this long before their reported expiry.
	tokenExpirySlack = 60 * time.Second
)

// Client is an HTTP implementation of the API interface using OAuth2
// script-app credentials.
// Params: account credentials and an optional custom http client.
// Returns: ready client; tokens are fetched lazily and cached.
type Client struct {
	account   config.AccountConfig
	userAgent string
	client    *http.Client

	authBase string
	apiBase  string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds an API client for one Reddit account.
// Params: account credentials, user agent sent with every request.
// Returns: client ready for use.
func NewClient(account config.AccountConfig, userAgent string) *Client {
	return &Client{
		account:   account,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		authBase:  authBaseURL,
		apiBase:   apiBaseURL,
	}
}

// accessToken returns a valid bearer token, refreshing when needed.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	switch {
	case c.account.RefreshToken != "":
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", c.account.RefreshToken)
	case c.account.Username != "":
		form.Set("grant_type", "password")
		form.Set("username", c.account.Username)
		form.Set("password", c.account.Password)
	default:
		return "", fmt.Errorf("%w: account needs a refresh_token or username/password", config.ErrConfiguration)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBase+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	request.SetBasicAuth(c.account.ClientID, c.account.ClientSecret)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", unexpectedHTTPStatusError("access token", response)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode access token response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("access token request rejected: %s", payload.Error)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("access token response had no token")
	}

	c.token = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.token, nil
}

// call performs one authenticated API request and decodes the JSON
// response into out when out is non-nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")
	endpoint := c.apiBase + path + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return unexpectedHTTPStatusError(method+" "+path, response)
	}
	if out == nil {
		io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.call(ctx, http.MethodPost, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *Client) putJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	return c.call(ctx, http.MethodPut, path, nil, bytes.NewReader(body), "application/json", out)
}

// submissionData is the wire form of one self post.
type submissionData struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Edited     any     `json:"edited"`
}

func (d submissionData) toSubmission() Submission {
	out := Submission{
		ID:         d.ID,
		Title:      d.Title,
		SelfText:   d.SelfText,
		URL:        d.URL,
		Permalink:  d.Permalink,
		CreatedUTC: int64(d.CreatedUTC),
	}
	// The edited field is false for pristine posts and a float
	// timestamp after an edit.
	if ts, ok := d.Edited.(float64); ok {
		out.Edited = int64(ts)
	}
	return out
}

type listing struct {
	Data struct {
		Children []struct {
			Data submissionData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// apiResult is the envelope of api_type=json write endpoints.
type apiResult struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			URL    string `json:"url"`
			Things []struct {
				Data struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"data"`
			} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func (r apiResult) err(operation string) error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(r.JSON.Errors))
	for _, entry := range r.JSON.Errors {
		fields := make([]string, 0, len(entry))
		for _, field := range entry {
			fields = append(fields, fmt.Sprint(field))
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return fmt.Errorf("%s rejected: %s", operation, strings.Join(parts, "; "))
}

// Submission fetches one self post by id.
func (c *Client) Submission(ctx context.Context, id string) (Submission, error) {
	query := url.Values{}
	query.Set("id", fullnameLink(id))
	var result listing
	if err := c.get(ctx, "/api/info", query, &result); err != nil {
		return Submission{}, err
	}
	if len(result.Data.Children) == 0 {
		return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return result.Data.Children[0].Data.toSubmission(), nil
}

// Submit creates a new self post.
func (c *Client) Submit(ctx context.Context, subreddit, title, text string) (Submission, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "self")
	form.Set("sr", subreddit)
	form.Set("title", title)
	form.Set("text", text)
	var result apiResult
	if err := c.postForm(ctx, "/api/submit", form, &result); err != nil {
		return Submission{}, err
	}
	if err := result.err("submit"); err != nil {
		return Submission{}, err
	}
	id := result.JSON.Data.ID
	if id == "" {
		id = strings.TrimPrefix(result.JSON.Data.Name, "t3_")
	}
	if id == "" {
		return Submission{}, fmt.Errorf("submit response had no post id")
	}
	return c.Submission(ctx, id)
}

// EditSubmission replaces the body of a self post.
func (c *Client) EditSubmission(ctx context.Context, id, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullnameLink(id))
	form.Set("text", text)
	var result apiResult
	if err := c.postForm(ctx, "/api/editusertext", form, &result); err != nil {
		return err
	}
	return result.err("edit submission")
}

// Approve re-approves a post.
func (c *Client) Approve(ctx context.Context, id string) error {
	form := url.Values{}
	form.Set("id", fullnameLink(id))
	return c.postForm(ctx, "/api/approve", form, nil)
}

// SetSticky pins or unpins a post.
func (c *Client) SetSticky(ctx context.Context, id string, state bool, slot int) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("id", fullnameLink(id))
	form.Set("state", strconv.FormatBool(state))
	if slot > 0 {
		form.Set("num", strconv.Itoa(slot))
	}
	var result apiResult
	if err := c.postForm(ctx, "/api/set_subreddit_sticky", form, &result); err != nil {
		return err
	}
	return result.err("set sticky")
}

// Sticky fetches the post pinned in the given slot.
func (c *Client) Sticky(ctx context.Context, subreddit string, slot int) (Submission, error) {
	query := url.Values{}
	query.Set("num", strconv.Itoa(slot))
	var result listing
	if err := c.get(ctx, "/r/"+subreddit+"/about/sticky", query, &result); err != nil {
		return Submission{}, err
	}
	if len(result.Data.Children) == 0 {
		return Submission{}, fmt.Errorf("sticky %d in r/%s: %w", slot, subreddit, ErrNotFound)
	}
	return result.Data.Children[0].Data.toSubmission(), nil
}

// Reply posts a comment under a submission.
func (c *Client) Reply(ctx context.Context, parentID, text string) (string, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullnameLink(parentID))
	form.Set("text", text)
	var result apiResult
	if err := c.postForm(ctx, "/api/comment", form, &result); err != nil {
		return "", err
	}
	if err := result.err("reply"); err != nil {
		return "", err
	}
	if len(result.JSON.Data.Things) == 0 {
		return "", fmt.Errorf("reply response had no comment")
	}
	return result.JSON.Data.Things[0].Data.ID, nil
}

// DistinguishSticky marks a comment as a stickied mod comment.
func (c *Client) DistinguishSticky(ctx context.Context, commentID string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("id", "t1_"+strings.TrimPrefix(commentID, "t1_"))
	form.Set("how", "yes")
	form.Set("sticky", "true")
	var result apiResult
	if err := c.postForm(ctx, "/api/distinguish", form, &result); err != nil {
		return err
	}
	return result.err("distinguish")
}

// DisableInboxReplies turns off inbox notifications for a post.
func (c *Client) DisableInboxReplies(ctx context.Context, id string) error {
	form := url.Values{}
	form.Set("id", fullnameLink(id))
	form.Set("state", "false")
	return c.postForm(ctx, "/api/sendreplies", form, nil)
}

// WikiPage fetches one wiki page.
func (c *Client) WikiPage(ctx context.Context, subreddit, page string) (WikiPage, error) {
	var result struct {
		Data struct {
			ContentMD    string  `json:"content_md"`
			RevisionDate float64 `json:"revision_date"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/r/"+subreddit+"/wiki/"+page, nil, &result); err != nil {
		return WikiPage{}, err
	}
	return WikiPage{
		Content:      result.Data.ContentMD,
		RevisionDate: int64(result.Data.RevisionDate),
	}, nil
}

// EditWikiPage writes one wiki page.
func (c *Client) EditWikiPage(ctx context.Context, subreddit, page, content, reason string) error {
	form := url.Values{}
	form.Set("page", page)
	form.Set("content", content)
	form.Set("reason", reason)
	return c.postForm(ctx, "/r/"+subreddit+"/api/wiki/edit", form, nil)
}

// widgetsResponse is the wire form of /api/widgets.
type widgetsResponse struct {
	Items map[string]struct {
		ID        string          `json:"id"`
		Kind      string          `json:"kind"`
		ShortName string          `json:"shortName"`
		Text      string          `json:"text"`
		Data      domain.MenuData `json:"data"`
	} `json:"items"`
}

// SidebarWidget finds a sidebar text widget by its short name.
func (c *Client) SidebarWidget(ctx context.Context, subreddit, shortName string) (Widget, error) {
	var result widgetsResponse
	if err := c.get(ctx, "/r/"+subreddit+"/api/widgets", nil, &result); err != nil {
		return Widget{}, err
	}
	for _, item := range result.Items {
		if item.Kind == "textarea" && item.ShortName == shortName {
			return Widget{ID: item.ID, ShortName: item.ShortName, Text: item.Text}, nil
		}
	}
	return Widget{}, fmt.Errorf("sidebar widget %q in r/%s: %w", shortName, subreddit, ErrNotFound)
}

// UpdateSidebarWidget replaces the text of a sidebar widget.
func (c *Client) UpdateSidebarWidget(ctx context.Context, subreddit string, widget Widget, text string) error {
	payload := map[string]any{
		"kind":      "textarea",
		"shortName": widget.ShortName,
		"text":      text,
	}
	return c.putJSON(ctx, "/r/"+subreddit+"/api/widget/"+widget.ID, payload, nil)
}

// TopbarMenu fetches the subreddit topbar menu.
func (c *Client) TopbarMenu(ctx context.Context, subreddit string) (Menu, error) {
	var result widgetsResponse
	if err := c.get(ctx, "/r/"+subreddit+"/api/widgets", nil, &result); err != nil {
		return Menu{}, err
	}
	for _, item := range result.Items {
		if item.Kind == "menu" {
			return Menu{ID: item.ID, Data: item.Data}, nil
		}
	}
	return Menu{}, fmt.Errorf("topbar menu in r/%s: %w", subreddit, ErrNotFound)
}

// UpdateTopbarMenu replaces the topbar menu structure.
func (c *Client) UpdateTopbarMenu(ctx context.Context, subreddit, id string, data domain.MenuData) error {
	payload := map[string]any{
		"kind": "menu",
		"data": data,
	}
	return c.putJSON(ctx, "/r/"+subreddit+"/api/widget/"+id, payload, nil)
}

// fullnameLink prefixes a bare post id with its thing kind.
func fullnameLink(id string) string {
	if strings.HasPrefix(id, "t3_") {
		return id
	}
	return "t3_" + id
}

// unexpectedHTTPStatusError builds an error carrying the status line
// and a response body excerpt.
func unexpectedHTTPStatusError(operation string, response *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(response.Body, 512))
	trimmed := strings.TrimSpace(string(excerpt))
	if trimmed == "" {
		return fmt.Errorf("%s: unexpected status %s", operation, response.Status)
	}
	return fmt.Errorf("%s: unexpected status %s: %s", operation, response.Status, trimmed)
}
