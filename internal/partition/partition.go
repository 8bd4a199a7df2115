// Package partition maps bookmarks to the remote shard file they belong in.
package partition

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// Root is the directory every shard lives under in the target repository.
const Root = "links"

// SinglePath is the shard used by the single strategy and as the fallback
// for records whose timestamp cannot be parsed.
const SinglePath = Root + "/links.json"

// Group is one shard path with the records destined for it.
type Group struct {
	Path  string
	Links []domain.Bookmark
}

// Path returns the shard path for one record.
func Path(b domain.Bookmark, strategy domain.PartitionStrategy) string {
	switch strategy {
	case domain.StrategyYearly:
		t, err := b.Time()
		if err != nil {
			return SinglePath
		}
		return fmt.Sprintf("%s/%04d.json", Root, t.Year())
	case domain.StrategyMonthly:
		t, err := b.Time()
		if err != nil {
			return SinglePath
		}
		return fmt.Sprintf("%s/%04d-%02d.json", Root, t.Year(), int(t.Month()))
	case domain.StrategyCategory:
		return fmt.Sprintf("%s/%s/links.json", Root, categoryDir(b.Category))
	default:
		return SinglePath
	}
}

// Partition groups batch by shard path. Groups come out in the order their
// path first appears in batch and records keep their input order, so the
// result depends only on the input.
func Partition(batch []domain.Bookmark, strategy domain.PartitionStrategy) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)

	for _, b := range batch {
		p := Path(b, strategy)
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, Group{Path: p})
		}
		groups[i].Links = append(groups[i].Links, b)
	}
	return groups
}

// categoryDir keeps a category usable as a single path segment.
func categoryDir(category string) string {
	c := strings.TrimSpace(category)
	c = strings.NewReplacer("/", "-", "\\", "-").Replace(c)
	if c == "" || c == "." || c == ".." {
		return domain.DefaultCategory
	}
	return c
}
