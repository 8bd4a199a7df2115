package domain

import (
	"net/url"
	"slices"
	"strings"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Field weights: a title hit outranks a host hit, which outranks tags and notes.
	weightTitle = 1.0
	weightHost  = 0.8
	weightTag   = 0.6
	weightNotes = 0.3
)

// ScoreBookmark rates how well b answers a free text query. Zero means no match.
func ScoreBookmark(query string, b Bookmark) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0.0
	}

	best := weightTitle * scoreField(query, strings.ToLower(b.Title))
	if u, err := url.Parse(b.URL); err == nil && u.Hostname() != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		best = max(best, weightHost*scoreField(query, host))
	}
	for _, t := range b.Tags {
		best = max(best, weightTag*scoreField(query, strings.ToLower(t)))
	}
	best = max(best, weightNotes*scoreField(query, strings.ToLower(b.Notes)))
	return best
}

func scoreField(query, field string) float64 {
	if field == "" {
		return 0.0
	}

	if query == field {
		return ScoreExactMatch
	}
	if strings.HasPrefix(field, query) {
		return ScorePrefixMatch
	}
	if i := strings.Index(field, query); i >= 0 {
		// Earlier substring matches get higher score
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(i)/float64(len(field)))
	}

	// Every query word somewhere in the field
	if words := strings.Fields(query); len(words) > 1 {
		for _, w := range words {
			if !strings.Contains(field, w) {
				return 0.0
			}
		}
		return ScoreFuzzyMatch
	}
	return 0.0
}

// RankBookmarks orders bookmarks by descending score for query. Ties keep
// their input order. An empty query returns the input unchanged.
func RankBookmarks(query string, bookmarks []Bookmark) []Bookmark {
	if strings.TrimSpace(query) == "" {
		return bookmarks
	}

	scores := make(map[string]float64, len(bookmarks))
	for _, b := range bookmarks {
		scores[b.ID] = ScoreBookmark(query, b)
	}

	out := slices.Clone(bookmarks)
	slices.SortStableFunc(out, func(a, b Bookmark) int {
		switch sa, sb := scores[a.ID], scores[b.ID]; {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
	return out
}
