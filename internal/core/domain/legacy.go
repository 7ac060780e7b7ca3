package domain

import "strings"

// CreatedBy values for datasets written by the operator tooling.
const (
	MigrationCreator = "migration-script"
	SeedCreator      = "seed-script"
)

// LegacyDataset is a record from the original name-keyed layout, where the
// key carried the name and the value only {description, data}.
type LegacyDataset struct {
	Name        string
	Description string   `json:"description"`
	Data        []string `json:"data"`
}

var categoryHints = []struct {
	category string
	words    []string
}{
	{"names", []string{"name", "person"}},
	{"contact", []string{"email"}},
	{"location", []string{"address", "city", "country"}},
	{"business", []string{"company", "business"}},
	{"design", []string{"color"}},
}

// InferCategory guesses a category from a legacy dataset name. The first
// matching hint wins; names matching none fall back to "general".
func InferCategory(name string) string {
	n := strings.ToLower(name)
	for _, h := range categoryHints {
		for _, w := range h.words {
			if strings.Contains(n, w) {
				return h.category
			}
		}
	}
	return "general"
}
