package billing

import (
	"strings"

	"garagebill/pkg/money"
)

var (
	unitWords = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
)

// AmountInWords spells an amount the way Indian invoices print it, e.g.
// "Rupees One Lakh Twenty Thousand Only".
func AmountInWords(m money.Money) string {
	var b strings.Builder
	if m.IsNegative() {
		b.WriteString("Minus ")
	}
	b.WriteString("Rupees ")
	b.WriteString(IndianNumberWords(m.Rupees()))
	if paise := m.Paise(); paise > 0 {
		b.WriteString(" and ")
		b.WriteString(twoDigitWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

// IndianNumberWords spells n using the crore/lakh/thousand grouping.
func IndianNumberWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		return "Minus " + IndianNumberWords(-n)
	}

	var parts []string
	if n >= crore {
		parts = append(parts, IndianNumberWords(n/crore)+" Crore")
		n %= crore
	}
	if n >= lakh {
		parts = append(parts, twoDigitWords(n/lakh)+" Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, twoDigitWords(n/thousand)+" Thousand")
		n %= thousand
	}
	if n >= 100 {
		parts = append(parts, unitWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, twoDigitWords(n))
	}
	return strings.Join(parts, " ")
}

func twoDigitWords(n int64) string {
	if n < 20 {
		return unitWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + unitWords[n%10]
}
