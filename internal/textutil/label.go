package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveLabel builds a display label from a job identifier. Separator runs
// (dashes, underscores, dots, whitespace) collapse to single spaces and the
// result is title-cased, so "mainframe-docs_2024" becomes "Mainframe Docs 2024".
func DeriveLabel(jobID string) string {
	if jobID == "" {
		return "Unknown Job"
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range jobID {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	label := strings.TrimSpace(cleaned.String())
	if label == "" {
		return "Unknown Job"
	}
	return cases.Title(language.Und).String(label)
}
