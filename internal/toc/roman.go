package toc

import "strings"

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// romanToInt converts a roman numeral to its value, or 0 when the string
// contains non-roman characters. Front matter commonly numbers its pages
// in lowercase roman (iv, xii).
func romanToInt(s string) int {
	s = strings.ToUpper(s)
	total := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		val, ok := romanValues[s[i]]
		if !ok {
			return 0
		}
		if val < prev {
			total -= val
		} else {
			total += val
			prev = val
		}
	}
	if total <= 0 {
		return 0
	}
	return total
}
