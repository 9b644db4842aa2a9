package history

import (
	"strings"

	"golang.org/x/text/width"
)

// collapseSpace trims s and replaces internal whitespace runs (including the
// ideographic space) with a single ASCII space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeCode folds full-width characters, drops separators and upper-cases.
// "check-in", "CHECK_IN" and "ＣＨＥＣＫ　ＩＮ" all become "CHECKIN".
func normalizeCode(s string) string {
	s = width.Fold.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '_', '-', ' ', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// foldForSearch prepares s for case-insensitive substring matching.
func foldForSearch(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// containsFold reports whether needle occurs in haystack ignoring case and width.
// An empty needle always matches.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(foldForSearch(haystack), foldForSearch(needle))
}
