package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹12,34,567.50.
func FormatRupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("%s₹%s.%s", sign, groupIndian(whole), frac)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
