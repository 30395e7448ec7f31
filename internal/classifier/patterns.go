package classifier

import "regexp"

// urlPatterns catches links that spell out their PDF-ness in the URL
// itself: a .pdf extension, with or without a following query/fragment,
// or a conventional /pdf/ path segment.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.pdf$`),
	regexp.MustCompile(`(?i)\.pdf\?`),
	regexp.MustCompile(`(?i)\.pdf#`),
	regexp.MustCompile(`(?i)/pdf/`),
}

// clueRegex catches a broader set of PDF-suggestive substrings anywhere
// in the URL, e.g. "/getpdf?id=3" or "portable document" spelled with a
// space (a hyphenated "portable-document-format" does not match).
var clueRegex = regexp.MustCompile(`(?i)(?:pdf|portable document|\.pdf[)"'\s])`)

// anchorTextRegex catches anchor text that a human would read as "this
// link downloads a document", independent of the URL shape.
var anchorTextRegex = regexp.MustCompile(`(?i)(?:download|pdf|document|paper|report|slides)`)

// extraPDFMIME is checked in addition to the canonical application/pdf
// when classifying a HEAD response's Content-Type — some servers are
// sloppy about MIME types for binary downloads.
var extraPDFMIME = map[string]struct{}{
	"application/pdf":         {},
	"binary/pdf":              {},
	"application/octet-stream": {},
	"application/x-pdf":       {},
}

// magicPDFPrefixes are the byte sequences that open a valid PDF file.
var magicPDFPrefixes = [][]byte{
	[]byte("%PDF-1.0"), []byte("%PDF-1.1"), []byte("%PDF-1.2"),
	[]byte("%PDF-1.3"), []byte("%PDF-1.4"), []byte("%PDF-1.5"),
	[]byte("%PDF-1.6"), []byte("%PDF-1.7"), []byte("%PDF-2.0"),
	[]byte("%PDF"),
}

func matchesURLPattern(s string) bool {
	for _, re := range urlPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func hasMagicPDFPrefix(b []byte) bool {
	for _, prefix := range magicPDFPrefixes {
		if len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix) {
			return true
		}
	}
	return false
}

func isPDFContentType(contentType string) bool {
	essence := contentType
	for i, c := range contentType {
		if c == ';' {
			essence = contentType[:i]
			break
		}
	}
	_, ok := extraPDFMIME[essence]
	return ok
}
