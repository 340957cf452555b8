package product

import (
	"strconv"
	"strings"
)

// ClampPrice parses a numeric form input and clamps it into [MinPrice, MaxPrice].
//
// Like a browser number field it accepts a leading integer and ignores the rest,
// so "070" becomes 70 and "12.5" becomes 12. Out-of-range values snap to the
// nearest bound instead of being rejected. It reports false when the input
// carries no leading integer at all.
func ClampPrice(input string) (int, bool) {
	s := strings.TrimSpace(input)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// Only overflow gets here; the sign decides the bound.
		if s[0] == '-' {
			return MinPrice, true
		}
		return MaxPrice, true
	}

	switch {
	case n < MinPrice:
		return MinPrice, true
	case n >= MaxPrice:
		return MaxPrice, true
	}
	return int(n), true
}
