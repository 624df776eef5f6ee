package shorturl

import "time"

// Visibility tags a URL as public or private. It is informational only;
// nothing in the service gates access on it.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// URL is the persistent record for one shortened URL. The store assigns ID on
// insert; ShortURL is globally unique. ClientInfo and ClickedAt stay nil until
// the first click.
type URL struct {
	ID         int64      `json:"id"`
	URL        string     `json:"url"`
	ShortURL   string     `json:"short_url"`
	IsGone     bool       `json:"is_gone"`
	Visibility Visibility `json:"visibility"`
	ClientInfo *string    `json:"client_info"`
	ClickedAt  *time.Time `json:"clicked_at"`
	NClicks    int64      `json:"nclicks"`
}

// NewURL is the insert payload for one record. The store fills in the
// remaining columns from their defaults.
type NewURL struct {
	URL        string
	ShortURL   string
	Visibility Visibility
}
