package caption

import "regexp"

var (
	currencyAmount = regexp.MustCompile(`(?:₹|Rs\.?|INR)` + ws + `\d+(?:,\d+)*`)
	productWords   = regexp.MustCompile(`(?i)\b(?:price|available|shop|buy|order|dm|whatsapp)\b`)
)

// IsProductPost is a cheap pre-filter run before Parse. It favours recall:
// false positives are rejected later by the price gate in Parse.
func IsProductPost(caption string) bool {
	if caption == "" {
		return false
	}
	return currencyAmount.MatchString(caption) || productWords.MatchString(caption)
}
