package fetcher

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice converts "$500" to 500. The second result is false when the text
// is not a number, in which case the value is 0 and the price is unknown
// rather than free.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")

	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}
