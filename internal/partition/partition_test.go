package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

func rec(id, ts, category string) domain.Bookmark {
	return domain.Bookmark{ID: id, URL: "https://example.com/" + id, Timestamp: ts, Category: category}
}

func TestPath(t *testing.T) {
	b := rec("1", "2024-03-05T10:00:00.000Z", "dev")

	tests := []struct {
		name     string
		record   domain.Bookmark
		strategy domain.PartitionStrategy
		want     string
	}{
		{name: "single", record: b, strategy: domain.StrategySingle, want: "links/links.json"},
		{name: "yearly", record: b, strategy: domain.StrategyYearly, want: "links/2024.json"},
		{name: "monthly zero padded", record: b, strategy: domain.StrategyMonthly, want: "links/2024-03.json"},
		{name: "category", record: b, strategy: domain.StrategyCategory, want: "links/dev/links.json"},
		{name: "empty category", record: rec("2", b.Timestamp, ""), strategy: domain.StrategyCategory, want: "links/general/links.json"},
		{name: "category with slash", record: rec("3", b.Timestamp, "a/b"), strategy: domain.StrategyCategory, want: "links/a-b/links.json"},
		{name: "offset timestamp uses utc", record: rec("4", "2024-01-01T00:30:00+01:00", ""), strategy: domain.StrategyMonthly, want: "links/2023-12.json"},
		{name: "bad timestamp falls back", record: rec("5", "not a date", ""), strategy: domain.StrategyYearly, want: "links/links.json"},
		{name: "unknown strategy", record: b, strategy: "weekly", want: "links/links.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Path(tt.record, tt.strategy))
		})
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	batch := []domain.Bookmark{
		rec("a", "2024-03-01T00:00:00.000Z", "x"),
		rec("b", "2024-02-01T00:00:00.000Z", "y"),
		rec("c", "2024-03-15T00:00:00.000Z", "x"),
		rec("d", "2024-02-20T00:00:00.000Z", "x"),
	}

	groups := Partition(batch, domain.StrategyMonthly)
	require.Len(t, groups, 2)

	assert.Equal(t, "links/2024-03.json", groups[0].Path)
	assert.Equal(t, []string{"a", "c"}, ids(groups[0].Links))
	assert.Equal(t, "links/2024-02.json", groups[1].Path)
	assert.Equal(t, []string{"b", "d"}, ids(groups[1].Links))
}

func TestPartitionIsDeterministic(t *testing.T) {
	batch := []domain.Bookmark{
		rec("a", "2023-12-31T23:59:59.000Z", "news"),
		rec("b", "2024-01-01T00:00:00.000Z", ""),
		rec("c", "2024-06-01T00:00:00.000Z", "news"),
	}

	for _, s := range []domain.PartitionStrategy{
		domain.StrategySingle, domain.StrategyYearly, domain.StrategyMonthly, domain.StrategyCategory,
	} {
		t.Run(string(s), func(t *testing.T) {
			first := Partition(batch, s)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Partition(batch, s))
			}

			total := 0
			for _, g := range first {
				total += len(g.Links)
			}
			assert.Equal(t, len(batch), total)
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	assert.Empty(t, Partition(nil, domain.StrategyMonthly))
}

func ids(links []domain.Bookmark) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}
