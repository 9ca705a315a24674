package caption

import "github.com/qepting91/caption-importer/internal/domain"

// Parser turns product captions into drafts. It holds only read-only
// configuration and is safe for concurrent use.
type Parser struct {
	categories Categories
}

// NewParser uses the default categories when none are given.
func NewParser(categories Categories) *Parser {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	return &Parser{categories: categories}
}

func (p *Parser) Categories() Categories {
	return p.categories
}

// Parse extracts a draft from caption. It reports false when no positive
// price can be found; that is the only rejection.
func (p *Parser) Parse(caption, mediaURL string) (domain.ProductDraft, bool) {
	hashtags := ExtractHashtags(caption)

	price, ok := ExtractPrice(caption)
	if !ok {
		return domain.ProductDraft{}, false
	}

	return domain.ProductDraft{
		Name:          DeriveName(caption),
		Description:   DeriveDescription(caption),
		Price:         price.Price,
		OriginalPrice: price.Original,
		Category:      InferCategory(caption, p.categories),
		Sizes:         ExtractSizes(caption),
		Colors:        ExtractColors(caption),
		Images:        []string{mediaURL},
		Hashtags:      hashtags,
	}, true
}
