package downloader

import (
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var contentDispositionFilename = regexp.MustCompile(`(?i)filename\*?=(?:UTF-8''|")?([^;"]+)`)

var dangerousChars = regexp.MustCompile(`[\\/*?:"<>|\x00-\x1f]`)

const maxFilenameLen = 200

// resolveFilename picks a safe on-disk filename for a downloaded PDF,
// preferring the server's Content-Disposition hint, then the URL's last
// path segment, and finally a generic fallback.
func resolveFilename(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if m := contentDispositionFilename.FindStringSubmatch(cd); len(m) == 2 {
			if decoded, err := url.QueryUnescape(m[1]); err == nil {
				if name := sanitizeFilename(decoded); name != "" {
					return name
				}
			}
		}
	}

	base := path.Base(u.Path)
	if base != "" && base != "." && base != "/" {
		if decoded, err := url.QueryUnescape(base); err == nil {
			if name := sanitizeFilename(decoded); name != "" {
				return name
			}
		}
	}

	return "document.pdf"
}

// sanitizeFilename strips path-traversal and filesystem-hostile
// characters, trims stray dots/whitespace, enforces a length ceiling, and
// guarantees a .pdf suffix.
func sanitizeFilename(name string) string {
	name = dangerousChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return ""
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
