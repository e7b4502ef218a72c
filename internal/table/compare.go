package table

import (
	"math"
	"strconv"
	"strings"

	"complyview/internal/model"
)

// Status ranks for the is_compliant column; anything unrecognized sorts last.
const (
	rankYes = iota + 1
	rankNo
	rankNA
	rankOther
)

func statusRank(s string) int {
	switch s {
	case model.StatusYes:
		return rankYes
	case model.StatusNo:
		return rankNo
	case model.StatusNA:
		return rankNA
	default:
		return rankOther
	}
}

// parseNumber reports whether the whole trimmed string is a finite number.
// "12abc", "", "NaN" and "Inf" are text.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// ParseFloat also takes hex floats such as 0x1p4; those stay text.
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Compare orders two raw cell values of a column and returns -1, 0 or 1.
//
// Numbers sort before text when a column mixes both.
func Compare(col model.Column, a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if col == model.ColIsCompliant {
		return cmpInt(statusRank(a), statusRank(b))
	}

	na, aNum := parseNumber(a)
	nb, bNum := parseNumber(b)
	switch {
	case aNum && bNum:
		return cmpFloat(na, nb)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
