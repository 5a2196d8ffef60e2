package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// Images lists the page logo and up to maxImages distinct <img> sources,
// resolved against pageURL. The logo comes from an <img> that names itself
// a logo, then an icon <link>, then og:image.
func (e *Extractor) Images(html string, pageURL *url.URL) scraper.ImageSet {
	set := scraper.ImageSet{Images: []string{}}
	doc, err := parse(html)
	if err != nil {
		return set
	}

	seen := make(map[string]struct{})
	var logo *string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := imageSource(sel)
		if src == "" {
			return true
		}
		abs := resolve(pageURL, src)
		if logo == nil && looksLikeLogo(sel, src) {
			logo = &abs
		}
		if _, dup := seen[abs]; !dup {
			seen[abs] = struct{}{}
			set.Images = append(set.Images, abs)
		}
		return len(set.Images) < e.maxImages
	})

	if logo == nil {
		logo = iconLink(doc, pageURL)
	}
	if logo == nil {
		if og := indexMeta(doc).openGraph("og:image"); og != nil && *og != "" {
			abs := resolve(pageURL, *og)
			logo = &abs
		}
	}
	set.Logo = logo
	return set
}

func imageSource(sel *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := sel.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(strings.ToLower(v), "data:") {
				return v
			}
		}
	}
	return ""
}

func looksLikeLogo(sel *goquery.Selection, src string) bool {
	alt, _ := sel.Attr("alt")
	class, _ := sel.Attr("class")
	id, _ := sel.Attr("id")
	for _, v := range []string{src, alt, class, id} {
		if strings.Contains(strings.ToLower(v), "logo") {
			return true
		}
	}
	return false
}

// iconLink returns the first apple-touch-icon href, else the first icon href.
func iconLink(doc *goquery.Document, pageURL *url.URL) *string {
	var touch, icon string
	doc.Find("link[rel][href]").Each(func(_ int, sel *goquery.Selection) {
		rel, _ := sel.Attr("rel")
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		for _, token := range strings.Fields(strings.ToLower(rel)) {
			switch token {
			case "apple-touch-icon":
				if touch == "" {
					touch = href
				}
			case "icon":
				if icon == "" {
					icon = href
				}
			}
		}
	})
	for _, candidate := range []string{touch, icon} {
		if candidate != "" {
			abs := resolve(pageURL, candidate)
			return &abs
		}
	}
	return nil
}
