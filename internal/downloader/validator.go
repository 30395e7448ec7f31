package downloader

import "bytes"

const (
	minPDFSize = 100               // bytes; below this, it cannot be a real PDF
	maxPDFSize = 500 * 1024 * 1024 // bytes; structural sanity ceiling
)

var eofMarker = []byte("%%EOF")

// validateHeader reports whether data opens with a recognizable PDF
// version header (a generic "%PDF" with no version digits still counts —
// some publishers emit non-conformant headers).
func validateHeader(data []byte) bool {
	return hasMagicPDFPrefix(data)
}

// checkEOFMarker scans the trailing window of data for the %%EOF marker a
// well-formed PDF ends with, or failing that a startxref keyword. Readers
// are expected to tolerate trailing garbage after %%EOF, so this checks a
// widening window rather than only the very last bytes.
func checkEOFMarker(data []byte) bool {
	for _, window := range []int{32, 64, 128, 256} {
		start := len(data) - window
		if start < 0 {
			start = 0
		}
		if bytes.Contains(data[start:], eofMarker) || bytes.Contains(data[start:], []byte("startxref")) {
			return true
		}
	}
	return false
}

// validateStructure applies a cheap heuristic for "this looks like a real
// PDF body", short of a full object-graph parse: either it has both
// indirect objects and an xref-or-trailer section, or it has a startxref
// pointer alongside PDF keywords, or it has both xref and trailer.
func validateStructure(data []byte) bool {
	hasObj := bytes.Contains(data, []byte(" obj"))
	hasXref := bytes.Contains(data, []byte("xref"))
	hasTrailer := bytes.Contains(data, []byte("trailer"))
	hasStartxref := bytes.Contains(data, []byte("startxref"))
	hasKeywords := bytes.Contains(data, []byte("/Type")) || bytes.Contains(data, []byte("/Catalog"))

	if hasObj && (hasXref || hasTrailer) {
		return true
	}
	if hasStartxref && hasKeywords {
		return true
	}
	if hasXref && hasTrailer {
		return true
	}
	return false
}

// ValidateComplete runs the full post-download structural check: size
// bounds, header, EOF/startxref tail, and the object-graph heuristic.
func ValidateComplete(data []byte) bool {
	if len(data) < minPDFSize || len(data) > maxPDFSize {
		return false
	}
	if !validateHeader(data) {
		return false
	}
	if !checkEOFMarker(data) {
		return false
	}
	return validateStructure(data)
}

// isLikelyPDFStart applies the same multi-signal check the streaming
// downloader runs on the first chunk, before the whole file is known: a
// literal %PDF prefix, "%pdf" in any letter case anywhere in the chunk, or
// co-occurrence of "pdf" with one of the object-level keywords.
func isLikelyPDFStart(chunk []byte) bool {
	if hasMagicPDFPrefix(chunk) {
		return true
	}
	lower := bytes.ToLower(chunk)
	if bytes.Contains(lower, []byte("%pdf")) {
		return true
	}
	if bytes.Contains(lower, []byte("pdf")) {
		for _, kw := range [][]byte{[]byte("obj"), []byte("stream"), []byte("catalog")} {
			if bytes.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// isLikelyHTMLOrXML flags the common "server returned an error page
// instead of the file" case, so the downloader can abort before writing a
// multi-megabyte HTML page to disk under a .pdf filename.
func isLikelyHTMLOrXML(chunk []byte) bool {
	lower := bytes.ToLower(bytes.TrimSpace(chunk))
	for _, marker := range [][]byte{
		[]byte("<!doctype html"), []byte("<html"), []byte("<?xml"),
		[]byte("<head"), []byte("<body"), []byte("<title"),
	} {
		if bytes.HasPrefix(lower, marker) || bytes.Contains(lower[:min(len(lower), 512)], marker) {
			return true
		}
	}
	return false
}

func hasMagicPDFPrefix(b []byte) bool {
	for _, prefix := range [][]byte{
		[]byte("%PDF-1.0"), []byte("%PDF-1.1"), []byte("%PDF-1.2"),
		[]byte("%PDF-1.3"), []byte("%PDF-1.4"), []byte("%PDF-1.5"),
		[]byte("%PDF-1.6"), []byte("%PDF-1.7"), []byte("%PDF-2.0"),
		[]byte("%PDF"),
	} {
		if len(b) >= len(prefix) && bytes.Equal(b[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}
