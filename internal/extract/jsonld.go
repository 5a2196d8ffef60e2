package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLD holds the top-level structured-data nodes of a page in document order.
// Nested @graph members and array entries are flattened.
type jsonLD []map[string]any

func collectJSONLD(doc *goquery.Document) jsonLD {
	var nodes jsonLD
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(strings.TrimSpace(sel.Text())), &payload); err != nil {
			return
		}
		nodes = appendNodes(nodes, payload)
	})
	return nodes
}

func appendNodes(nodes jsonLD, payload any) jsonLD {
	switch v := payload.(type) {
	case []any:
		for _, item := range v {
			nodes = appendNodes(nodes, item)
		}
	case map[string]any:
		nodes = append(nodes, v)
		if graph, ok := v["@graph"]; ok {
			nodes = appendNodes(nodes, graph)
		}
	}
	return nodes
}

func (ld jsonLD) title() *string {
	if v := ld.firstString("headline"); v != nil {
		return v
	}
	return ld.firstString("name")
}

func (ld jsonLD) description() *string {
	return ld.firstString("description")
}

// keywords accepts either a comma separated string or an array of strings.
func (ld jsonLD) keywords() *string {
	for _, node := range ld {
		switch v := node["keywords"].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return &s
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) > 0 {
				joined := strings.Join(parts, ",")
				return &joined
			}
		}
	}
	return nil
}

func (ld jsonLD) firstString(key string) *string {
	for _, node := range ld {
		if s, ok := node[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return &s
			}
		}
	}
	return nil
}
