package caption

import "strings"

// Category maps a catalog category to the lowercase keywords that select it.
type Category struct {
	Name     string
	Keywords []string
}

// Categories is evaluated in order; the first entry is also the fallback.
type Categories []Category

// DefaultCategories returns the storefront's reference category mapping.
func DefaultCategories() Categories {
	return Categories{
		{Name: "Kurtis", Keywords: []string{"kurti", "kurta", "tunic"}},
		{Name: "Lehengas", Keywords: []string{"lehenga", "lehnga", "skirt"}},
		{Name: "Co-ord Sets", Keywords: []string{"coord", "coordinate", "set", "matching"}},
		{Name: "Anarkali Sets", Keywords: []string{"anarkali"}},
		{Name: "Pure Cottons", Keywords: []string{"cotton", "pure", "handloom"}},
	}
}

// Names lists category names in evaluation order.
func (c Categories) Names() []string {
	names := make([]string, 0, len(c))
	for _, cat := range c {
		names = append(names, cat.Name)
	}
	return names
}

// InferCategory returns the first category with a keyword contained in the
// lowercased caption, or the first category when nothing matches.
func InferCategory(caption string, categories Categories) string {
	if len(categories) == 0 {
		return ""
	}
	lower := strings.ToLower(caption)
	for _, cat := range categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return cat.Name
			}
		}
	}
	return categories[0].Name
}
