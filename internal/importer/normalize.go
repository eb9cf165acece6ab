package importer

import (
	"strings"

	"github.com/pawsuite/reserve/pkg/models"
)

// Free-text hints from the legacy system prefix the unit number with the
// kind of unit ("Kennel 7", "Run #12", "VIP Suite 3"). The prefixes carry
// no identity; only the remainder does.
var hintPrefixes = map[string]bool{
	"kennel": true,
	"run":    true,
	"suite":  true,
	"room":   true,
}

const hintNumberWidth = 3

// NormalizeHint canonicalizes a free-text resource hint: descriptive prefix
// words and "#" markers are dropped, the remainder is uppercased, and a
// purely numeric final token is left-padded to a fixed width so "Kennel 7"
// and "kennel #007" name the same resource.
//
//	"Kennel 7"     -> "007"
//	"run #12"      -> "012"
//	"VIP Suite 3"  -> "VIP 003"
func NormalizeHint(hint string) string {
	var kept []string
	for _, tok := range strings.Fields(hint) {
		tok = strings.TrimPrefix(tok, "#")
		if tok == "" || hintPrefixes[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, strings.ToUpper(tok))
	}
	if len(kept) == 0 {
		return ""
	}

	last := kept[len(kept)-1]
	if isDigits(last) && len(last) < hintNumberWidth {
		kept[len(kept)-1] = strings.Repeat("0", hintNumberWidth-len(last)) + last
	}
	return strings.Join(kept, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// typePatterns maps hint markers to resource types, evaluated in order; the
// first marker found in the hint wins. The scheduling engine never sees
// these heuristics.
var typePatterns = []struct {
	marker       string
	resourceType string
}{
	{"vip", models.ResourceTypeVIP},
	{"deluxe", models.ResourceTypeVIP},
	{"plus", models.ResourceTypePlus},
	{"suite", models.ResourceTypePlus},
}

// InferType derives a resource type from the original (un-normalized) hint.
// Hints with no recognized marker are standard units.
func InferType(hint string) string {
	lower := strings.ToLower(hint)
	for _, p := range typePatterns {
		if strings.Contains(lower, p.marker) {
			return p.resourceType
		}
	}
	return models.ResourceTypeStandard
}
