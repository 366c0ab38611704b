package config

// defaultStaticTOML is the documented skeleton written when no static
// config exists. A run against the unedited skeleton aborts with
// ErrNeedsSetup, so the example items ship disabled.
const defaultStaticTOML = `# submanager configuration.
# Fill in your accounts and defaults, then enable the items you need.

repeat_interval_s = 60

[accounts.example]
client_id = ""
client_secret = ""
refresh_token = ""

[defaults]
account = "example"
subreddit = "YOURSUBNAMEHERE"

[megathread]
enabled = true

[megathread.megathreads.example_primary]
description = "Primary megathread"
enabled = false
link_update_pages = []
new_thread_interval = "month"
pin_thread = "top"
post_title_template = "{{.Subreddit}} Megathread ({{date .CurrentDatetime \"January 2006\"}}, #{{.ThreadNumber}})"

[megathread.megathreads.example_primary.initial]
thread_number = 0
thread_id = ""

[megathread.megathreads.example_primary.source]
description = "Megathreads wiki page"
endpoint_name = "threads"

[[megathread.megathreads.example_primary.source.replace_patterns]]
old = "https://old.reddit.com"
new = "https://www.reddit.com"

[sync]
enabled = true

[sync.defaults]
pattern_start = " Start"
pattern_end = " End"

[sync.pairs.example_sidebar]
description = "Sync Sidebar Demo"
enabled = false

[sync.pairs.example_sidebar.source]
description = "Thread source wiki page"
endpoint_name = "threads"
endpoint_type = "WIKI_PAGE"
pattern = "Sidebar"

[[sync.pairs.example_sidebar.source.replace_patterns]]
old = "https://www.reddit.com"
new = "https://old.reddit.com"

[sync.pairs.example_sidebar.targets.sidebar]
description = "Sub Sidebar"
enabled = true
endpoint_name = "config/sidebar"
endpoint_type = "WIKI_PAGE"
pattern = "Sidebar"
`
