package domain

import (
	"encoding/json"
	"time"
)

// Shard is the JSON document stored at one partition path in the remote repository.
type Shard struct {
	Updated    string     `json:"updated"`
	TotalLinks int        `json:"totalLinks"`
	Links      []Bookmark `json:"links"`
}

// Merge appends the records of batch whose URL is not already present in
// existing and returns the resulting shard together with the records that were
// actually added. Existing entries always win; duplicates inside batch collapse
// to their first occurrence. A nil existing shard is treated as empty.
//
// Merge is idempotent: merging the same batch into its own output adds nothing.
func Merge(existing *Shard, batch []Bookmark, now time.Time) (Shard, []Bookmark) {
	var current []Bookmark
	if existing != nil {
		current = existing.Links
	}

	seen := make(map[string]struct{}, len(current)+len(batch))
	links := make([]Bookmark, 0, len(current)+len(batch))
	for _, l := range current {
		seen[l.URL] = struct{}{}
		links = append(links, l)
	}

	added := make([]Bookmark, 0, len(batch))
	for _, l := range batch {
		if _, dup := seen[l.URL]; dup {
			continue
		}
		seen[l.URL] = struct{}{}
		links = append(links, l)
		added = append(added, l)
	}

	return Shard{
		Updated:    FormatTimestamp(now),
		TotalLinks: len(links),
		Links:      links,
	}, added
}

// MarshalPretty renders the shard the way it is committed: two-space indented JSON.
func (s Shard) MarshalPretty() ([]byte, error) {
	if s.Links == nil {
		s.Links = []Bookmark{}
	}
	return json.MarshalIndent(s, "", "  ")
}
