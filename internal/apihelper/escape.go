package apihelper

import "strings"

const luceneReserved = `+-&|!(){}[]^"~*?:\/`

// EscapeLuceneQuery backslash-escapes the Lucene query syntax characters
// + - & | ! ( ) { } [ ] ^ " ~ * ? : \ / and leaves everything else as is.
// It is not idempotent; apply it once per value.
func EscapeLuceneQuery(text string) string {
	if !strings.ContainsAny(text, luceneReserved) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	// Reserved characters are all ASCII; copy other bytes through unchanged.
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(luceneReserved, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
