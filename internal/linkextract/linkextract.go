// Package linkextract pulls outbound <a href> links and their anchor text
// out of a fetched HTML page.
package linkextract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one discovered outbound link, resolved against the page's base URL.
type Link struct {
	URL        *url.URL
	AnchorText string
}

// Extract parses body as HTML relative to pageURL and returns every
// resolvable http(s) link it finds. Non-HTTP schemes (mailto:,
// javascript:, tel:, ...) and unparseable hrefs are silently skipped —
// they are not crawl candidates, not parse errors.
func Extract(pageURL *url.URL, body []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, err := pageURL.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""

		links = append(links, Link{
			URL:        resolved,
			AnchorText: strings.TrimSpace(sel.Text()),
		})
	})

	return links, nil
}
