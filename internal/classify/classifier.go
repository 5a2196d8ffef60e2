// Package classify assigns an industry label to scraped page metadata using a
// domain override table and an ordered keyword rule table.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// fieldSeparator keeps multi-word keywords from matching across two fields.
const fieldSeparator = " | "

type compiledRule struct {
	label   scraper.IndustryLabel
	pattern *regexp.Regexp
}

// Classifier implements scraper.Classifier. It is immutable after construction.
type Classifier struct {
	rules     []compiledRule
	overrides map[string]scraper.IndustryLabel
}

// New compiles rules in order and normalizes override keys to lowercase hosts.
func New(rules []Rule, overrides map[string]scraper.IndustryLabel) (*Classifier, error) {
	c := &Classifier{
		rules:     make([]compiledRule, 0, len(rules)),
		overrides: make(map[string]scraper.IndustryLabel, len(overrides)),
	}
	for _, rule := range rules {
		pattern, err := compileKeywords(rule.Keywords)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", rule.Label, err)
		}
		c.rules = append(c.rules, compiledRule{label: rule.Label, pattern: pattern})
	}
	for domain, label := range overrides {
		key := normalizeHost(domain)
		if key == "" {
			continue
		}
		c.overrides[key] = label
	}
	return c, nil
}

// NewDefault builds a Classifier from DefaultRules and DefaultDomainOverrides,
// with extra overrides (domain -> label) layered on top. Extra labels must be
// one of the labels the rule table can produce.
func NewDefault(extra map[string]string) (*Classifier, error) {
	known := make(map[scraper.IndustryLabel]struct{}, len(DefaultRules)+1)
	known[scraper.NoClassification] = struct{}{}
	for _, rule := range DefaultRules {
		known[rule.Label] = struct{}{}
	}
	overrides := make(map[string]scraper.IndustryLabel, len(DefaultDomainOverrides)+len(extra))
	for domain, label := range DefaultDomainOverrides {
		overrides[domain] = label
	}
	for domain, raw := range extra {
		label := scraper.IndustryLabel(strings.TrimSpace(raw))
		if _, ok := known[label]; !ok {
			return nil, fmt.Errorf("unknown industry label %q for domain %q", raw, domain)
		}
		overrides[domain] = label
	}
	return New(DefaultRules, overrides)
}

// Classify returns the override for host if one exists, otherwise the label of
// the first rule whose keywords appear in the metadata text fields.
func (c *Classifier) Classify(meta scraper.PageMetadata, host string) scraper.IndustryLabel {
	if label, ok := c.override(host); ok {
		return label
	}
	fields := meta.TextFields()
	if len(fields) == 0 {
		return scraper.NoClassification
	}
	text := collapseSpace(strings.Join(fields, fieldSeparator))
	for _, rule := range c.rules {
		if rule.pattern.MatchString(text) {
			return rule.label
		}
	}
	return scraper.NoClassification
}

func (c *Classifier) override(host string) (scraper.IndustryLabel, bool) {
	host = normalizeHost(host)
	if host == "" || len(c.overrides) == 0 {
		return "", false
	}
	if label, ok := c.overrides[host]; ok {
		return label, true
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	label, ok := c.overrides[registrable]
	return label, ok
}

func compileKeywords(keywords []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = collapseSpace(strings.ToLower(kw))
		if kw == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(kw))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("rule has no keywords")
	}
	pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(parts, "|") + `)s?\b`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword pattern: %w", err)
	}
	return pattern, nil
}

func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
