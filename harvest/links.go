// Package harvest turns rendered PoeDB pages into item URLs and records.
// The parsing functions are pure over a goquery snapshot; Harvester and
// Extractor drive an engine.Session to produce those snapshots.
package harvest

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContainerKind selects how item links are walked inside a container.
type ContainerKind int

const (
	// Tabular containers (tbody) hold one item per row.
	Tabular ContainerKind = iota
	// ListLike containers hold one item per direct child element.
	ListLike
)

func (k ContainerKind) String() string {
	if k == Tabular {
		return "tabular"
	}
	return "list"
}

// KindOf probes a container element once.
func KindOf(n *html.Node) ContainerKind {
	if n != nil && n.Type == html.ElementNode && n.DataAtom == atom.Tbody {
		return Tabular
	}
	return ListLike
}

// Links returns the absolute item URLs found in the first element matching
// containerSel, deduplicated in first-seen order. An absent container
// yields an empty result.
//
// Tabular containers contribute every linkSel match in every row. ListLike
// containers contribute every linkSel match of each direct child, or the
// child's first anchor when linkSel matches nothing in it.
func Links(doc *goquery.Document, pageURL, containerSel, linkSel string) []string {
	container := doc.Find(containerSel).First()
	if container.Length() == 0 {
		return nil
	}

	c := collector{base: baseURL(doc, pageURL), seen: make(map[string]struct{})}

	switch KindOf(container.Get(0)) {
	case Tabular:
		container.Find("tr").Each(func(_ int, row *goquery.Selection) {
			row.Find(linkSel).Each(c.add)
		})
	case ListLike:
		container.Children().Each(func(_ int, child *goquery.Selection) {
			matches := child.Find(linkSel)
			if matches.Length() == 0 {
				matches = child.Find("a").First()
			}
			matches.Each(c.add)
		})
	}
	return c.links
}

type collector struct {
	base  *url.URL
	seen  map[string]struct{}
	links []string
}

func (c *collector) add(_ int, s *goquery.Selection) {
	href, ok := s.Attr("href")
	if !ok {
		return
	}
	abs := resolve(c.base, href)
	if abs == "" {
		return
	}
	if _, dup := c.seen[abs]; dup {
		return
	}
	c.seen[abs] = struct{}{}
	c.links = append(c.links, abs)
}

// baseURL honours <base href> when present.
func baseURL(doc *goquery.Document, pageURL string) *url.URL {
	page, err := url.Parse(pageURL)
	if err != nil {
		page = &url.URL{}
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := page.Parse(strings.TrimSpace(href)); err == nil {
			return b
		}
	}
	return page
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
