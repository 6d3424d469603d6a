package types

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError reports text that no rule of an institution recognizes. Text holds the raw
// input fields exactly as they were read.
type ParseError struct {
	Institution string
	Code        string
	Text        []string
	Reason      string
}

func (e *ParseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "could not parse description"
	}
	var b strings.Builder
	if e.Institution != "" {
		fmt.Fprintf(&b, "%s: ", e.Institution)
	}
	b.WriteString(reason)
	if e.Code != "" {
		fmt.Fprintf(&b, " (type %q)", e.Code)
	}
	quoted := make([]string, len(e.Text))
	for i, t := range e.Text {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	fmt.Fprintf(&b, ": %s", strings.Join(quoted, ", "))
	return b.String()
}

// MappingError reports a bound column that is missing from a row, which means the
// export layout changed upstream.
type MappingError struct {
	Institution string
	Column      string
	Available   []string
}

func (e *MappingError) Error() string {
	available := append([]string(nil), e.Available...)
	sort.Strings(available)
	prefix := ""
	if e.Institution != "" {
		prefix = e.Institution + ": "
	}
	return fmt.Sprintf("%smissing column %q (have %s)", prefix, e.Column, strings.Join(available, ", "))
}
