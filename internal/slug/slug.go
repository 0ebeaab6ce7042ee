// Package slug derives URL-safe unique identifiers from display names.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Checker reports whether a slug is already taken. Implementations must only
// consider active (non-soft-deleted) rows and must ignore the row identified
// by excludeID, so that renaming a record back to its own name never suffixes.
type Checker interface {
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// maxCandidates bounds the suffix search. The unique index remains the
// authoritative guard if the search is exhausted or raced.
const maxCandidates = 1000

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Make normalizes a display name into a base slug: diacritics folded,
// lowercase, non-alphanumeric runs collapsed to single hyphens, leading and
// trailing hyphens trimmed. Empty or whitespace-only names are rejected by
// validation before reaching this package.
func Make(name string) string {
	folded, _, err := transform.String(stripAccents, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Unique returns the base slug for name, or the first suffixed variant
// (base-1, base-2, ...) that is free according to the checker. The check is a
// best-effort pre-check: concurrent writers are finally arbitrated by the
// database unique index.
func Unique(ctx context.Context, checker Checker, name string, excludeID uuid.UUID) (string, error) {
	base := Make(name)
	if base == "" {
		return "", fmt.Errorf("name %q produces an empty slug", name)
	}

	candidate := base
	for i := 1; i <= maxCandidates; i++ {
		taken, err := checker.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", fmt.Errorf("no free slug found for %q after %d candidates", base, maxCandidates)
}
