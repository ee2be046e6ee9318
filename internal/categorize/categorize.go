// Package categorize assigns spending categories to transactions by matching
// configured label substrings against descriptions.
package categorize

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tomin-mx/tomin/internal/domain"
)

//go:embed categories.yaml
var embeddedCategories []byte

// UncategorizedID is the reserved category assigned to transactions whose
// description matches no configured label.
const UncategorizedID = "sin-categoria"

// table is the top-level YAML structure.
type table struct {
	Categories []domain.Category `yaml:"categories"`
}

// Matcher performs first-match-wins substring categorization. Categories are
// evaluated in configured order; within a category, labels are evaluated in
// configured order. Matching is case-insensitive substring, not word-boundary.
type Matcher struct {
	categories []domain.Category
}

// NewMatcher creates a matcher from a category table. The table must contain
// the reserved uncategorized category.
func NewMatcher(categories []domain.Category) (*Matcher, error) {
	hasDefault := false
	seen := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category %d (%s): ID cannot be empty", i, c.Name)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("category %d (%s): duplicate ID %q", i, c.Name, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.ID == UncategorizedID {
			hasDefault = true
		}
	}
	if !hasDefault {
		return nil, fmt.Errorf("category table missing reserved %q category", UncategorizedID)
	}

	copied := make([]domain.Category, len(categories))
	copy(copied, categories)
	return &Matcher{categories: copied}, nil
}

// NewMatcherFromYAML parses a YAML category table and builds a matcher.
func NewMatcherFromYAML(data []byte) (*Matcher, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse category table (check syntax, indentation, and field names): %w", err)
	}
	return NewMatcher(t.Categories)
}

// LoadEmbedded builds a matcher from the embedded default category table.
func LoadEmbedded() (*Matcher, error) {
	m, err := NewMatcherFromYAML(embeddedCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded categories (possible binary corruption): %w", err)
	}
	return m, nil
}

// LoadFromFile builds a matcher from a YAML file on disk.
func LoadFromFile(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category file: %w", err)
	}
	m, err := NewMatcherFromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories from %q: %w", path, err)
	}
	return m, nil
}

// Match returns the ID of the first category whose label is a case-insensitive
// substring of the description, or UncategorizedID when none match.
func (m *Matcher) Match(description string) string {
	desc := strings.ToLower(description)
	for _, c := range m.categories {
		for _, label := range c.Labels {
			if label == "" {
				continue
			}
			if strings.Contains(desc, strings.ToLower(label)) {
				return c.ID
			}
		}
	}
	return UncategorizedID
}

// Categories returns a copy of the configured categories in matching order.
func (m *Matcher) Categories() []domain.Category {
	result := make([]domain.Category, len(m.categories))
	copy(result, m.categories)
	return result
}
