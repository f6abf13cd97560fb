package component

import "strings"

// contentReplacer covers the five characters with meaning in HTML text
// content.
var contentReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// attrReplacer additionally escapes the whitespace characters that could
// break attribute parsing.
var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// escapeHTML escapes text for inclusion in HTML content.
func escapeHTML(s string) string {
	return contentReplacer.Replace(s)
}

// escapeAttr escapes text for inclusion in an HTML attribute value.
func escapeAttr(s string) string {
	return attrReplacer.Replace(s)
}
