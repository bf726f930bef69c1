package render

import "strings"

var escaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
)

// EscapeHTML neutralizes <, >, & and ". Nothing else is touched.
// Already-escaped input is escaped again (&lt; becomes &amp;lt;).
func EscapeHTML(s string) string {
	return escaper.Replace(s)
}
