package review

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/qepting91/caption-importer/internal/domain"
)

// Item is one reviewable draft. Key is the post ID, suffixed with "~n" for
// the n-th repeat of the same post within one load.
type Item struct {
	Key      string              `json:"key"`
	Post     domain.SourcePost   `json:"post"`
	Draft    domain.ProductDraft `json:"draft"`
	Selected bool                `json:"selected"`
}

// DraftPatch carries reviewer edits. Nil fields are left unchanged; an
// OriginalPrice of 0 removes the original price.
type DraftPatch struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Price         *int      `json:"price,omitempty"`
	OriginalPrice *int      `json:"original_price,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Sizes         *[]string `json:"sizes,omitempty"`
	Colors        *[]string `json:"colors,omitempty"`
	Images        *[]string `json:"images,omitempty"`
	Hashtags      *[]string `json:"hashtags,omitempty"`
}

// Session holds the drafts of the latest refresh while a reviewer works on
// them. Every Load bumps the generation so an import never clears drafts it
// did not see.
type Session struct {
	mu         sync.Mutex
	items      []Item
	generation uint64
}

func NewSession() *Session {
	return &Session{}
}

// Load replaces the current drafts; all of them start selected.
func (s *Session) Load(candidates []domain.Candidate) {
	items := make([]Item, 0, len(candidates))
	used := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		key := c.Post.ID
		for n := 2; used[key]; n++ {
			key = fmt.Sprintf("%s~%d", c.Post.ID, n)
		}
		used[key] = true
		items = append(items, Item{Key: key, Post: c.Post, Draft: c.Draft, Selected: true})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.generation++
}

func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items, false)
}

// Selected returns the selected drafts and the generation they belong to.
func (s *Session) Selected() ([]Item, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items, true), s.generation
}

func (s *Session) Toggle(key string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Item{}, fmt.Errorf("draft %s: %w", key, domain.ErrNotFound)
	}
	s.items[i].Selected = !s.items[i].Selected
	return cloneItem(s.items[i]), nil
}

func (s *Session) Edit(key string, patch DraftPatch) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Item{}, fmt.Errorf("draft %s: %w", key, domain.ErrNotFound)
	}
	draft, err := applyPatch(cloneItem(s.items[i]).Draft, patch)
	if err != nil {
		return Item{}, err
	}
	s.items[i].Draft = draft
	return cloneItem(s.items[i]), nil
}

// ClearGeneration empties the session if no Load happened since gen.
func (s *Session) ClearGeneration(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.items = nil
	return true
}

func (s *Session) indexOf(key string) int {
	for i := range s.items {
		if s.items[i].Key == key {
			return i
		}
	}
	return -1
}

func applyPatch(d domain.ProductDraft, p DraftPatch) (domain.ProductDraft, error) {
	invalid := func(field string) error {
		return domain.WrapError(domain.ErrInvalidInput, "edit draft", fmt.Errorf("%s is invalid", field))
	}

	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return d, invalid("name")
		}
		d.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Price != nil {
		if *p.Price <= 0 {
			return d, invalid("price")
		}
		d.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		switch v := *p.OriginalPrice; {
		case v < 0:
			return d, invalid("original_price")
		case v == 0:
			d.OriginalPrice = nil
		default:
			d.OriginalPrice = &v
		}
	}
	if p.Category != nil {
		if strings.TrimSpace(*p.Category) == "" {
			return d, invalid("category")
		}
		d.Category = strings.TrimSpace(*p.Category)
	}
	if p.Sizes != nil {
		d.Sizes = slices.Clone(*p.Sizes)
	}
	if p.Colors != nil {
		d.Colors = slices.Clone(*p.Colors)
	}
	if p.Images != nil {
		d.Images = slices.Clone(*p.Images)
	}
	if p.Hashtags != nil {
		d.Hashtags = slices.Clone(*p.Hashtags)
	}
	return d, nil
}

func cloneItems(items []Item, selectedOnly bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if selectedOnly && !it.Selected {
			continue
		}
		out = append(out, cloneItem(it))
	}
	return out
}

func cloneItem(it Item) Item {
	d := it.Draft
	d.Sizes = slices.Clone(d.Sizes)
	d.Colors = slices.Clone(d.Colors)
	d.Images = slices.Clone(d.Images)
	d.Hashtags = slices.Clone(d.Hashtags)
	if d.OriginalPrice != nil {
		v := *d.OriginalPrice
		d.OriginalPrice = &v
	}
	it.Draft = d
	return it
}
