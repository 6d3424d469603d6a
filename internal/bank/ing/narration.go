package ing

import (
	"regexp"
	"strings"

	"github.com/lox/bank-statement-importer/internal/narration"
	"github.com/lox/bank-statement-importer/internal/types"
	"golang.org/x/exp/slices"
)

var (
	notificationPattern = regexp.MustCompile(`^Name: (.*)Description: (.*) IBAN: `)
	fromToPattern       = regexp.MustCompile(`^(?:From|To) (.*) (Value .*)`)

	grabberTransferPattern = regexp.MustCompile(`^Naam: (.*)<br>Omschrijving:(.*)<br>IBAN: (.*?)<br>`)
	grabberValuePattern    = regexp.MustCompile(`(.*?)(?:<br>Datum/Tijd:.*)?<br>Valutadatum:.*`)
)

// transaction types whose notifications follow the Name/Description/IBAN template
var notificationTypes = []string{"iDEAL", "SEPA direct debit", "Batch payment", "Transfer", "Online Banking"}

// ParseDescription derives payee and narration from the "Transaction type",
// "Name / Description" and "Notifications" columns of the native export.
func ParseDescription(transactionType, name, notifications string) (types.Description, error) {
	if slices.Contains(notificationTypes, transactionType) {
		if m := notificationPattern.FindStringSubmatch(notifications); m != nil {
			payee := strings.TrimSpace(m[1])
			desc := narration.StripPayeePrefix(payee, strings.TrimSpace(m[2]))
			return narration.WithPayee(payee, desc), nil
		}
	}

	switch transactionType {
	case "Online Banking":
		if m := fromToPattern.FindStringSubmatch(notifications); m != nil {
			return narration.WithPayee(strings.TrimSpace(m[1]), strings.TrimSpace(m[2])), nil
		}
	case "Various":
		return narration.Plain(name), nil
	case "Payment terminal":
		return narration.WithPayee(name, notifications), nil
	}

	return types.Description{}, narration.Error(transactionType, name, notifications)
}

// Dutch transaction codes in grabber exports
var (
	grabberTransferCodes = []string{"iDEAL", "Verzamelbetaling", "Incasso", "Overschrijving", "Online bankieren"}
	grabberValueCodes    = []string{"Diversen", "Online bankieren", "Overschrijving", "Geldautomaat"}
)

// ParseGrabberNarration derives the narration of a grabber export row from its bank
// transaction code and the <br> separated remittance text.
func ParseGrabberNarration(code, text string) (string, error) {
	n, err := grabberNarration(code, text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(n, "<br>", " ")), nil
}

func grabberNarration(code, text string) (string, error) {
	if slices.Contains(grabberTransferCodes, code) {
		if m := grabberTransferPattern.FindStringSubmatch(text); m != nil {
			payee := strings.TrimSpace(m[1])
			desc := narration.StripPayeePrefix(payee, strings.TrimSpace(m[2]))
			if code == "Online bankieren" {
				// own-account transfers: the counter IBAN says more than the description
				desc = m[3] + " - " + m[2]
			}
			return desc, nil
		}
	}

	if code == "Betaalautomaat" {
		return "", nil
	}

	if slices.Contains(grabberValueCodes, code) {
		if strings.HasPrefix(text, "Van") || strings.HasPrefix(text, "Naar") {
			return "", nil
		}
		if m := grabberValuePattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), nil
		}
	}

	if code == "Payment terminal" {
		return text, nil
	}

	return "", narration.Error(code, text)
}
