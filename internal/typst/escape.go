package typst

import "strings"

var (
	escaper = strings.NewReplacer(
		"$", `\$`,
		"#", `\#`,
		"<", `\<`,
		">", `\>`,
		"*", `\*`,
		"_", ` \_`,
		"`", "\\`",
		"@", `\@`,
	)
	unescaper = strings.NewReplacer(
		` \_`, "_",
		`\$`, "$",
		`\#`, "#",
		`\<`, "<",
		`\>`, ">",
		`\*`, "*",
		"\\`", "`",
		`\@`, "@",
	)
	literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// Escape makes text safe to place in Typst markup.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape reverses Escape.
func Unescape(markup string) string {
	return unescaper.Replace(markup)
}

// StringLiteral quotes s as a Typst string literal.
func StringLiteral(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
