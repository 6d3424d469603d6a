package abn

import (
	"regexp"
	"strings"

	"github.com/lox/bank-statement-importer/internal/narration"
	"github.com/lox/bank-statement-importer/internal/types"
)

var (
	// "BEA, Betaalpas     Albert Heijn 1234,PAS123    NR:AB12CD, 01.02.24/10:15"
	cardPattern        = regexp.MustCompile(`^([\p{L}\p{N}_,.]+ )*.  +(.*)`)
	grabberSEPAPattern = regexp.MustCompile(`Omschrijving: ([^:]*)(?:\s*Kenmerk:|$)`)
	spacesPattern      = regexp.MustCompile(` +`)
)

// ParseDescription derives payee and narration from the "Omschrijving" column of the
// native export. The prefix of the text tells what kind of transaction it is.
func ParseDescription(text string) (types.Description, error) {
	trimmed := strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "ABN AMRO Bank N.V."):
		return narration.Plain(strings.TrimSpace(narration.CollapseSpaces(text))), nil

	case strings.HasPrefix(text, "BEA"):
		if m := cardPattern.FindStringSubmatch(trimmed); m != nil {
			return narration.Plain(cardNarration(m[2])), nil
		}

	case strings.HasPrefix(text, "SEPA"):
		if payee, desc, ok := narration.SplitSEPA(trimmed); ok {
			return narration.WithPayee(payee, desc), nil
		}

	case strings.HasPrefix(text, "/TRTP/"):
		if n, ok := narration.SplitTags(trimmed); ok {
			return narration.Plain(n), nil
		}
	}

	return types.Description{}, narration.Error(prefixCode(text), text)
}

// ParseGrabberNarration derives the narration of a grabber export row from its bank
// transaction code and the multi-line remittance text.
func ParseGrabberNarration(code, text string) (string, error) {
	n, err := grabberNarration(code, text)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(n, "\n", " "), nil
}

func grabberNarration(code, text string) (string, error) {
	lines := narration.SplitLines(text)
	if len(lines) == 0 {
		return "", narration.Error(code, text)
	}

	if strings.HasPrefix(lines[0], "BEA") {
		// BEA, Betaalpas / merchant,place / PAS / NR:terminal, date
		if len(lines) < 4 {
			return "", narration.Error(code, text)
		}
		return cardNarration(lines[1]) + ", " + lines[3], nil
	}

	switch {
	case lines[0] == "SEPA Overboeking", code == "944", code == "654", code == "411":
		if m := grabberSEPAPattern.FindStringSubmatch(text); m != nil {
			var b strings.Builder
			for _, line := range narration.SplitLines(m[1]) {
				b.WriteString(strings.TrimSpace(line))
			}
			return b.String(), nil
		}
		return lines[0], nil

	case code == "526":
		return spacesPattern.ReplaceAllString(strings.Join(lines, ", "), " "), nil

	// Apple Pay
	case code == "426", code == "369":
		return strings.Join(lines[1:], ", "), nil

	// ATM
	case code == "445":
		return strings.ReplaceAll(strings.Join(lines, ", "), "GEA, ", ""), nil
	}

	return "", narration.Error(code, text)
}

func cardNarration(s string) string {
	return strings.TrimSpace(narration.CollapseSpaces(narration.RepairCommas(s)))
}

// prefixCode names the discriminator of native export text for error messages
func prefixCode(text string) string {
	if i := strings.IndexAny(text, " ,/"); i > 0 {
		return text[:i]
	}
	if strings.HasPrefix(text, "/") {
		if j := strings.Index(text[1:], "/"); j > 0 {
			return text[:j+2]
		}
	}
	return ""
}
