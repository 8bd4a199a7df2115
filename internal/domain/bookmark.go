package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the ISO-8601 form used for every timestamp written to
// local state and to remote shards (millisecond precision, UTC, "Z" suffix).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DefaultCategory is used when a bookmark carries no category.
const DefaultCategory = "general"

// ErrMissingURL is returned when a bookmark is created without a URL.
var ErrMissingURL = errors.New("bookmark url is required")

// Bookmark is a single saved link.
//
// Field names on the wire are part of the shard format and must not change:
// remote files written by earlier versions are merged with new ones.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque, globally unique identifier generated at creation.
	ID string `json:"id"`

	// URL is the bookmarked address. It is also the de-duplication key
	// when merging into a remote shard.
	URL string `json:"url"`

	// ─────────────────────────────
	// User-provided description
	// ─────────────────────────────

	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
	Category string   `json:"category"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Timestamp is the creation time formatted with TimestampLayout.
	Timestamp string `json:"timestamp"`

	// Favicon is the page icon URL, possibly empty.
	Favicon string `json:"favicon"`
}

// NewBookmark builds a bookmark with a fresh ID and timestamp.
// Tags are trimmed and empty entries dropped; an empty category becomes DefaultCategory.
func NewBookmark(url, title string, tags []string, notes, category, favicon string, now time.Time) (Bookmark, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Bookmark{}, ErrMissingURL
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}

	if title = strings.TrimSpace(title); title == "" {
		title = url
	}

	return Bookmark{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     title,
		Tags:      CleanTags(tags),
		Notes:     strings.TrimSpace(notes),
		Category:  category,
		Timestamp: FormatTimestamp(now),
		Favicon:   strings.TrimSpace(favicon),
	}, nil
}

// CleanTags trims every tag and drops empty ones. Order is preserved.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitTags parses a comma separated tag list ("go, tools,,cli").
func SplitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return CleanTags(strings.Split(s, ","))
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the bookmark timestamp. Any RFC 3339 value is accepted, with or
// without fractional seconds.
func (b Bookmark) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, b.Timestamp)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Matches reports whether the bookmark passes a case-insensitive text query
// (title, url, notes, tags), an exact category filter and a tag filter
// requiring every listed tag. Empty filters match everything.
func (b Bookmark) Matches(query, category string, tags []string) bool {
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		found := strings.Contains(strings.ToLower(b.Title), query) ||
			strings.Contains(strings.ToLower(b.URL), query) ||
			strings.Contains(strings.ToLower(b.Notes), query)
		for _, t := range b.Tags {
			if found {
				break
			}
			found = strings.Contains(strings.ToLower(t), query)
		}
		if !found {
			return false
		}
	}

	if category != "" && b.Category != category {
		return false
	}

	for _, want := range tags {
		has := false
		for _, t := range b.Tags {
			if t == want {
				has = true
				break
			}
		}
		if !has {
			return false
		}
	}
	return true
}
