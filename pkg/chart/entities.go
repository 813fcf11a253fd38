package chart

import (
	stdhtml "html"
	"strings"
)

// The backend stores chart options in an HTML attribute, escaping the five
// standard entities. Decoding prefers the stdlib unescaper and falls back to
// an explicit substitution table when that reports no change.
var entityTokens = []string{"&quot;", "&#39;", "&lt;", "&gt;", "&amp;"}

var entityTable = strings.NewReplacer(
	"&quot;", `"`,
	"&#39;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

func hasEntityTokens(s string) bool {
	for _, tok := range entityTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// DecodeEntities reverses HTML-entity escaping when the text shows signs of
// it; text without entity tokens passes through untouched.
func DecodeEntities(s string) string {
	if !hasEntityTokens(s) {
		return s
	}
	out := stdhtml.UnescapeString(s)
	if out == s {
		out = entityTable.Replace(s)
	}
	return out
}

var literalEscapes = strings.NewReplacer(
	`\\`, "\\",
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
	`\"`, `"`,
	`\'`, "'",
)

var literalEscapeTokens = []string{`\n`, `\t`, `\r`, `\"`, `\'`, `\\`}

func hasLiteralEscape(s string) bool {
	for _, tok := range literalEscapeTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// UnescapeLiterals converts literal two-character escape sequences to their
// real characters, but only when the text does not already contain the real
// control characters (which would mean the escapes survived on purpose).
func UnescapeLiterals(s string) string {
	if !hasLiteralEscape(s) {
		return s
	}
	if strings.ContainsAny(s, "\n\t\r") {
		return s
	}
	return literalEscapes.Replace(s)
}
