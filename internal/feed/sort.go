package feed

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spigell/collab-matcher/internal/projects"
)

type SortMode string

const (
	SortMatch    SortMode = "match"
	SortRecent   SortMode = "recent"
	SortTrending SortMode = "trending"
)

const (
	trendingScoreWeight   = 0.6
	trendingRecencyWeight = 40
)

// SortModes lists accepted modes in display order.
var SortModes = []SortMode{SortMatch, SortRecent, SortTrending}

// ParseSortMode accepts the three modes case-insensitively. Empty means match.
func ParseSortMode(s string) (SortMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortMatch, nil
	}
	for _, mode := range SortModes {
		if string(mode) == s {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// TrendingScore blends compatibility with recency against nowMillis.
func TrendingScore(p *projects.Project, nowMillis int64) float64 {
	recency := 0.0
	if nowMillis > 0 {
		recency = float64(p.CreatedTimestamp) / float64(nowMillis)
	}
	return float64(p.CompatibilityScore)*trendingScoreWeight + recency*trendingRecencyWeight
}

// Comparator returns a descending comparator for mode. For trending, now is
// read once here so every comparison in one sort uses the same instant.
func Comparator(mode SortMode, now time.Time) func(a, b *projects.Project) int {
	switch mode {
	case SortRecent:
		return func(a, b *projects.Project) int {
			return cmp.Compare(b.CreatedTimestamp, a.CreatedTimestamp)
		}
	case SortTrending:
		nowMillis := now.UnixMilli()
		return func(a, b *projects.Project) int {
			return cmp.Compare(TrendingScore(b, nowMillis), TrendingScore(a, nowMillis))
		}
	default:
		return func(a, b *projects.Project) int {
			return cmp.Compare(b.CompatibilityScore, a.CompatibilityScore)
		}
	}
}

// Sort orders items in place with a stable sort; ties keep their input order.
func Sort(items []*projects.Project, mode SortMode, now time.Time) {
	slices.SortStableFunc(items, Comparator(mode, now))
}
