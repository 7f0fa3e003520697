package display

import (
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultWidth = 80

var titler = cases.Title(language.English)

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Indent prefixes every wrapped line with n spaces.
func Indent(text string, n uint) string {
	return indent.String(Wrap(text), n)
}

// TitleName normalizes a player-entered name to title case, so "aRAgorN"
// is stored and shown as "Aragorn".
func TitleName(s string) string {
	return titler.String(strings.ToLower(strings.TrimSpace(s)))
}

// Capitalize returns s with its first character uppercased.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
