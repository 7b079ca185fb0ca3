package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	ibanRegex = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`)
	cardRegex = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
)

// EntityMap maps anonymization placeholders back to the original values.
type EntityMap map[string]string

// Anonymize replaces personal identifiers in statement text with stable
// placeholders and returns the scrubbed text together with the mapping
// needed to restore them. The account holder's full name is redacted along
// with anything matching an IBAN or payment card number.
func Anonymize(text, holderName string) (string, EntityMap) {
	entities := EntityMap{}
	counter := map[string]int{}

	replace := func(s, kind string) string {
		// Reuse the placeholder if the same value appears again.
		for ph, orig := range entities {
			if orig == s {
				return ph
			}
		}
		counter[kind]++
		ph := fmt.Sprintf("[%s_%d]", kind, counter[kind])
		entities[ph] = s
		return ph
	}

	out := ibanRegex.ReplaceAllStringFunc(text, func(m string) string {
		return replace(m, "IBAN")
	})
	out = cardRegex.ReplaceAllStringFunc(out, func(m string) string {
		return replace(m, "CARD")
	})

	if name := strings.TrimSpace(holderName); name != "" {
		nameRegex, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err == nil && nameRegex.MatchString(out) {
			counter["NAME"]++
			ph := fmt.Sprintf("[NAME_%d]", counter["NAME"])
			entities[ph] = name
			out = nameRegex.ReplaceAllString(out, ph)
		}
	}

	return out, entities
}

// Deanonymize restores the original values for any placeholders present in s.
func Deanonymize(s string, entities EntityMap) string {
	for ph, orig := range entities {
		s = strings.ReplaceAll(s, ph, orig)
	}
	return s
}

// DeanonymizeTransactions restores original values in every text field of the
// parsed transactions.
func DeanonymizeTransactions(txs []ParsedTransaction, entities EntityMap) {
	for i := range txs {
		txs[i].Description = Deanonymize(txs[i].Description, entities)
		txs[i].Merchant = Deanonymize(txs[i].Merchant, entities)
		txs[i].Sender = Deanonymize(txs[i].Sender, entities)
		txs[i].Receiver = Deanonymize(txs[i].Receiver, entities)
	}
}
