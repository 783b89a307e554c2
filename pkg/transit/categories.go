package transit

import (
	"slices"
	"strings"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
)

// CategoryMap maps each POI category to the everyday names callers use for it.
var CategoryMap = map[string][]string{
	"restaurant": {"restaurants", "food", "fast_food", "cafe", "bar", "pub"},
	"hospital":   {"hospitals", "clinic", "medical", "emergency"},
	"hotel":      {"hotels", "motel", "hostel", "guest_house", "lodging"},
	"school":     {"schools", "university", "college", "education"},
	"shopping":   {"shop", "shops", "mall", "supermarket", "store", "department_store"},
	"museum":     {"museums", "gallery", "exhibition"},
	"gym":        {"gyms", "fitness", "fitness_centre", "sports_centre"},
	"bank":       {"banks", "atm"},
	"park":       {"parks", "garden", "nature_reserve"},
	"landmark":   {"landmarks", "monument", "attraction", "sight"},
}

// CanonicalCategory resolves a category name or alias, case-insensitively.
func CanonicalCategory(s string) (string, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	if slices.Contains(dataset.POICategories, key) {
		return key, true
	}
	for category, aliases := range CategoryMap {
		if slices.Contains(aliases, key) {
			return category, true
		}
	}
	return "", false
}
