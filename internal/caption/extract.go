package caption

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLen        = 50
	maxDescriptionLen = 200

	FallbackName        = "Instagram Product"
	FallbackDescription = "Beautiful ethnic wear from our Instagram collection"
	FallbackColor       = "Multicolor"
)

// spaceClass is the body of a character class matching the same whitespace
// as ECMAScript \s. RE2's \s is ASCII only and misses the NBSP that caption
// editors insert.
const spaceClass = `\s\v\x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

// ws matches zero or more caption whitespace runes.
const ws = `[` + spaceClass + `]*`

// Price patterns in priority order. Only the first one that matches is used.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹` + ws + `(\d+(?:,\d+)*)`),
	regexp.MustCompile(`Rs\.?` + ws + `(\d+(?:,\d+)*)`),
	regexp.MustCompile(`INR` + ws + `(\d+(?:,\d+)*)`),
	regexp.MustCompile(`(?i)Price:?` + ws + `₹?` + ws + `(\d+(?:,\d+)*)`),
}

var (
	hashtagPattern = regexp.MustCompile(`#\w+`)
	nameStrip      = regexp.MustCompile(`[^\w` + spaceClass + `-]`)
	priceMention   = regexp.MustCompile(`(?i)₹|Rs\.?|INR|Price`)

	sizeMention    = regexp.MustCompile(`(?i)sizes?:?` + ws + `[smlx\d` + spaceClass + `,\-]+`)
	sizePrefix     = regexp.MustCompile(`(?i)sizes?:?` + ws)
	sizeSeparators = regexp.MustCompile(`[,` + spaceClass + `\-]+`)
)

var defaultSizes = []string{"S", "M", "L", "XL", "XXL", "3XL"}

var colorKeywords = []string{
	"red", "blue", "green", "yellow", "pink", "purple", "black", "white",
	"orange", "brown", "golden", "silver", "mustard", "navy", "maroon",
}

// DefaultSizes returns a fresh copy of the full size run.
func DefaultSizes() []string {
	return slices.Clone(defaultSizes)
}

// PriceRange is the result of ExtractPrice. Original is nil when only one
// amount was found.
type PriceRange struct {
	Price    int
	Original *int
}

// ExtractHashtags returns every #tag in order of appearance, duplicates kept.
func ExtractHashtags(caption string) []string {
	tags := hashtagPattern.FindAllString(caption, -1)
	if tags == nil {
		return []string{}
	}
	return tags
}

// ExtractPrice applies the price patterns in priority order and stops at the
// first one with any match. The lowest amount is the price; when more than
// one amount matched, the highest is the original price.
func ExtractPrice(caption string) (PriceRange, bool) {
	for _, re := range pricePatterns {
		matches := re.FindAllStringSubmatch(caption, -1)
		if len(matches) == 0 {
			continue
		}

		values := make([]int, 0, len(matches))
		for _, m := range matches {
			n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
			if err != nil {
				continue
			}
			values = append(values, n)
		}
		if len(values) == 0 {
			return PriceRange{}, false
		}

		lo := slices.Min(values)
		if lo <= 0 {
			return PriceRange{}, false
		}
		out := PriceRange{Price: lo}
		if len(values) > 1 {
			hi := slices.Max(values)
			out.Original = &hi
		}
		return out, true
	}
	return PriceRange{}, false
}

// DeriveName cleans the first non-blank line into a product name.
func DeriveName(caption string) string {
	lines := nonBlankLines(caption)
	if len(lines) == 0 {
		return FallbackName
	}
	name := trimSpace(nameStrip.ReplaceAllString(trimSpace(lines[0]), ""))
	if utf8.RuneCountInString(name) > maxNameLen {
		name = truncateRunes(name, maxNameLen) + "..."
	}
	return name
}

// DeriveDescription joins the lines that look like prose: no hashtags, no
// price mentions, longer than ten characters.
func DeriveDescription(caption string) string {
	var kept []string
	for _, line := range nonBlankLines(caption) {
		if strings.Contains(line, "#") || priceMention.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(trimSpace(line)) <= 10 {
			continue
		}
		kept = append(kept, line)
	}

	desc := truncateRunes(strings.Join(kept, " "), maxDescriptionLen)
	if desc == "" {
		return FallbackDescription
	}
	return desc
}

// ExtractSizes reads the first "size:" mention. Unknown tokens are dropped;
// when nothing usable remains the full default run is returned.
func ExtractSizes(caption string) []string {
	mention := sizeMention.FindString(caption)
	if mention == "" {
		return DefaultSizes()
	}

	var sizes []string
	for _, tok := range sizeSeparators.Split(sizePrefix.ReplaceAllString(mention, ""), -1) {
		tok = strings.ToUpper(trimSpace(tok))
		if slices.Contains(defaultSizes, tok) {
			sizes = append(sizes, tok)
		}
	}
	if len(sizes) == 0 {
		return DefaultSizes()
	}
	return sizes
}

// ExtractColors returns known colour names found in the caption, in the
// keyword list's order.
func ExtractColors(caption string) []string {
	lower := strings.ToLower(caption)
	var colors []string
	for _, c := range colorKeywords {
		if strings.Contains(lower, c) {
			colors = append(colors, strings.ToUpper(c[:1])+c[1:])
		}
	}
	if len(colors) == 0 {
		return []string{FallbackColor}
	}
	return colors
}

func nonBlankLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if trimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// trimSpace also strips U+FEFF, which unicode.IsSpace does not cover.
func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '\uFEFF' || unicode.IsSpace(r)
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
