// Package extract parses HTML documents into scraper.PageMetadata using goquery.
//
// Every field is looked up independently. When several sources can supply a
// field the most explicit one wins: a dedicated tag first, then meta-property
// or JSON-LD fallbacks, then absent (nil, or "" for the title).
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

const defaultMaxImages = 50

// Extractor implements scraper.Extractor.
type Extractor struct {
	maxImages int
}

// New returns an Extractor. maxImages <= 0 selects the default cap of 50.
func New(maxImages int) *Extractor {
	if maxImages <= 0 {
		maxImages = defaultMaxImages
	}
	return &Extractor{maxImages: maxImages}
}

// Extract builds PageMetadata from html. It only fails when the HTML reader
// itself fails; malformed markup yields whatever fields could be found.
// pageURL may be nil, in which case relative og:image values are kept as-is.
func (e *Extractor) Extract(html string, pageURL *url.URL) (scraper.PageMetadata, error) {
	doc, err := parse(html)
	if err != nil {
		return scraper.PageMetadata{}, err
	}
	metas := indexMeta(doc)
	ld := collectJSONLD(doc)

	meta := scraper.PageMetadata{
		Title:         titleOf(doc, metas, ld),
		Description:   firstPresent(metas.name("description"), ld.description()),
		Keywords:      firstPresent(metas.name("keywords"), ld.keywords()),
		OGTitle:       metas.openGraph("og:title"),
		OGDescription: metas.openGraph("og:description"),
		OGImage:       metas.openGraph("og:image"),
	}
	if meta.OGImage != nil && *meta.OGImage != "" {
		resolved := resolve(pageURL, *meta.OGImage)
		meta.OGImage = &resolved
	}
	return meta, nil
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scraper.ErrParseFailure, err)
	}
	return doc, nil
}

func titleOf(doc *goquery.Document, metas metaIndex, ld jsonLD) string {
	if title := collapseSpace(documentTitle(doc).Text()); title != "" {
		return title
	}
	if v := firstPresent(metas.name("title"), ld.title()); v != nil {
		return *v
	}
	return ""
}

// documentTitle skips <title> elements that caption inline SVG.
func documentTitle(doc *goquery.Document) *goquery.Selection {
	return doc.Find("title").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.Closest("svg").Length() == 0
	}).First()
}

// metaIndex keeps the first content value per lowercased name and property.
type metaIndex struct {
	names      map[string]string
	properties map[string]string
}

func indexMeta(doc *goquery.Document) metaIndex {
	idx := metaIndex{
		names:      make(map[string]string),
		properties: make(map[string]string),
	}
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content, ok := sel.Attr("content")
		if !ok {
			return
		}
		content = strings.TrimSpace(content)
		if name, ok := sel.Attr("name"); ok {
			storeFirst(idx.names, name, content)
		}
		if prop, ok := sel.Attr("property"); ok {
			storeFirst(idx.properties, prop, content)
		}
	})
	return idx
}

func storeFirst(m map[string]string, key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if _, seen := m[key]; !seen {
		m[key] = value
	}
}

func (m metaIndex) name(key string) *string {
	if v, ok := m.names[key]; ok {
		return &v
	}
	return nil
}

func (m metaIndex) property(key string) *string {
	if v, ok := m.properties[key]; ok {
		return &v
	}
	return nil
}

// openGraph prefers property="og:*" and falls back to name="og:*".
func (m metaIndex) openGraph(key string) *string {
	return firstPresent(m.property(key), m.name(key))
}

func firstPresent(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if parsed.IsAbs() || base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}
