package scraper

import (
	"net/http"
	"net/url"
	"time"
)

// IndustryLabel is one category from the closed classification set.
type IndustryLabel string

// NoClassification is returned when no rule or override matches.
const NoClassification IndustryLabel = "No classification"

// Industry labels produced by the classifier.
const (
	IndustryEcommerce          IndustryLabel = "E-commerce"
	IndustryEntertainment      IndustryLabel = "Entertainment"
	IndustryHealthcare         IndustryLabel = "Healthcare"
	IndustryFinance            IndustryLabel = "Finance"
	IndustryEducation          IndustryLabel = "Education"
	IndustryTechnology         IndustryLabel = "Technology"
	IndustryTravel             IndustryLabel = "Travel and Tourism"
	IndustryFood               IndustryLabel = "Food and Beverage"
	IndustryFashion            IndustryLabel = "Fashion"
	IndustryAutomotive         IndustryLabel = "Automotive"
	IndustryRealEstate         IndustryLabel = "Real Estate"
	IndustryNews               IndustryLabel = "News and Media"
	IndustrySports             IndustryLabel = "Sports"
	IndustryMarketing          IndustryLabel = "Marketing and Advertising"
	IndustryLogistics          IndustryLabel = "Logistics"
	IndustryTelecommunications IndustryLabel = "Telecommunications"
	IndustryConstruction       IndustryLabel = "Construction"
	IndustryManufacturing      IndustryLabel = "Manufacturing"
	IndustryAgriculture        IndustryLabel = "Agriculture"
	IndustryEnergy             IndustryLabel = "Energy and Utilities"
	IndustryGovernment         IndustryLabel = "Government"
	IndustryLegal              IndustryLabel = "Legal"
	IndustryNonProfit          IndustryLabel = "Non-profit"
)

// PageMetadata is the normalized metadata of one page.
// Optional fields are nil when the page does not provide them.
type PageMetadata struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Keywords      *string `json:"keywords"`
	OGTitle       *string `json:"ogTitle"`
	OGDescription *string `json:"ogDescription"`
	OGImage       *string `json:"ogImage"`
}

// TextFields returns the present text values in scan order.
func (m PageMetadata) TextFields() []string {
	fields := make([]string, 0, 6)
	if m.Title != "" {
		fields = append(fields, m.Title)
	}
	for _, v := range []*string{m.Description, m.Keywords, m.OGTitle, m.OGDescription, m.OGImage} {
		if v != nil && *v != "" {
			fields = append(fields, *v)
		}
	}
	return fields
}

// Result is returned to callers of Scrape.
type Result struct {
	Metadata PageMetadata  `json:"metadata"`
	Industry IndustryLabel `json:"industry"`
}

// RobotsDecision reports whether a URL may be scraped.
type RobotsDecision struct {
	IsURLScrapable bool `json:"isUrlScrapable"`
}

// SiteStatus reports whether a site answered a probe.
type SiteStatus struct {
	URL        string `json:"url"`
	IsLive     bool   `json:"isLive"`
	StatusCode int    `json:"statusCode"`
}

// ImageSet lists the logo and inline images of a page.
type ImageSet struct {
	Logo   *string  `json:"logo"`
	Images []string `json:"images"`
}

// FetchRequest describes a single page retrieval.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// Page is a fetched document.
type Page struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// Outcome is handed to observers after a successful scrape.
type Outcome struct {
	Target *url.URL
	Page   Page
	Result Result
}

// Record is a persisted scrape.
type Record struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Host         string        `json:"host"`
	Industry     IndustryLabel `json:"industry"`
	Metadata     PageMetadata  `json:"metadata"`
	ContentHash  string        `json:"contentHash"`
	SnapshotURI  string        `json:"snapshotUri,omitempty"`
	UsedHeadless bool          `json:"usedHeadless"`
	ScrapedAt    time.Time     `json:"scrapedAt"`
}

// ScrapeEvent is published after a record is stored.
type ScrapeEvent struct {
	Type        string        `json:"type"`
	RecordID    string        `json:"recordId"`
	URL         string        `json:"url"`
	Industry    IndustryLabel `json:"industry"`
	ContentHash string        `json:"contentHash"`
	SnapshotURI string        `json:"snapshotUri,omitempty"`
	ScrapedAt   time.Time     `json:"scrapedAt"`
}
