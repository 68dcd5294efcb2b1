package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// FormatUSD renders whole dollars with thousand separators, e.g. $1,997.
func FormatUSD(amount float64) string {
	sign := ""
	n := int64(math.Round(amount))
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s$%s", sign, formatThousand(n))
}

// ToCents converts a dollar amount to the integer minor unit used by payment providers.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
