package domain

import (
	"fmt"
	"strings"
)

// SortKind orders a lecture list. It is a closed set.
type SortKind int

// Sort orders.
const (
	SortRecent SortKind = iota + 1
	SortPopular
	SortSpice
	SortRecommended
	SortMostRated
)

var sortNames = map[SortKind]string{
	SortRecent:      "recent",
	SortPopular:     "popular",
	SortSpice:       "spice",
	SortRecommended: "recommended",
	SortMostRated:   "most_rated",
}

func (k SortKind) String() string {
	if s, ok := sortNames[k]; ok {
		return s
	}
	return fmt.Sprintf("sort(%d)", int(k))
}

// Valid reports whether k is a known sort kind.
func (k SortKind) Valid() bool {
	_, ok := sortNames[k]
	return ok
}

// ParseSortKind maps a sort name to its SortKind. Empty means SortRecent.
func ParseSortKind(s string) (SortKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortRecent, nil
	}
	for k, name := range sortNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sort %q, want one of %s", s, strings.Join(SortNames(), ", "))
}

// SortNames returns the accepted sort names in declaration order.
func SortNames() []string {
	names := make([]string, 0, len(sortNames))
	for k := SortRecent; k <= SortMostRated; k++ {
		names = append(names, sortNames[k])
	}
	return names
}
