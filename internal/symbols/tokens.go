package symbols

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var foldLower = cases.Lower(language.Und)

// SplitTokens breaks an identifier into lowercase tokens on case and
// word boundaries and on separators, so differently-cased spellings of
// the same semantic name produce the same token set:
//
//	parseEventLog, ParseEventLog, parse_event_log, parse-event-log
//	  -> [parse event log]
//
// Consecutive uppercase runs are kept together until the run ends
// (HTTPServer -> [http server]).
func SplitTokens(name string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, foldLower.String(string(current)))
			current = current[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == '/' || r == ' ' || r == ':':
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || prevDigit || (prevUpper && nextLower) {
				flush()
			}
			current = append(current, r)
		case unicode.IsDigit(r):
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			if !prevDigit {
				flush()
			}
			current = append(current, r)
		default:
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			if prevDigit {
				flush()
			}
			current = append(current, r)
		}
	}
	flush()
	return tokens
}

// TokenKey joins the token set into a canonical comparable form.
func TokenKey(name string) string {
	return strings.Join(SplitTokens(name), " ")
}
