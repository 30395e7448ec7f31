// Package urlid turns a parsed URL into the stable identity used for
// frontier dedup: a canonical string form plus a 64-bit hash of that form.
//
// Canonicalization is deliberately narrow. It exists to recognize the same
// resource written two different ways ("Example.com/x" and
// "example.com/x/"), not to normalize query strings or fragments — those
// are left exactly as the server would see them, since two URLs that only
// differ in query string may well be different resources.
package urlid

import (
	"encoding/binary"
	"net/url"
	"strings"

	"github.com/rohmanhakim/pdfcrawler/pkg/hashutil"
)

// Canonicalize lowercases scheme and host and strips exactly one trailing
// slash from the path (never the root "/" itself). Query and fragment are
// copied through unchanged.
func Canonicalize(u *url.URL) string {
	var b strings.Builder

	b.WriteString(lowerASCII(u.Scheme))
	b.WriteString("://")
	b.WriteString(lowerASCII(u.Host))

	path := u.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	b.WriteString(path)

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}

	return b.String()
}

func lowerASCII(s string) string {
	needsLower := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
		}
	}
	return string(out)
}

// Hash folds the canonical form into a deterministic 64-bit identity,
// truncating a BLAKE3 digest rather than hand-rolling a weaker hash.
func Hash(canonical string) (uint64, error) {
	digest, err := hashutil.HashBytesRaw([]byte(canonical), hashutil.HashAlgoBLAKE3)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(digest[:8]), nil
}

// Identity canonicalizes u and returns both the canonical string and its hash.
func Identity(u *url.URL) (string, uint64, error) {
	canon := Canonicalize(u)
	h, err := Hash(canon)
	if err != nil {
		return "", 0, err
	}
	return canon, h, nil
}
