package scraper

import "strings"

// DefaultDeniedDomains are rejected without consulting robots.txt.
// amazon.com is matched exactly so subdomain pages such as www.amazon.com stay reachable.
var DefaultDeniedDomains = []string{
	"*.pixabay.com",
	"amazon.com",
}

// DomainVerdict is the outcome of evaluating a host against the domain policy.
type DomainVerdict int

const (
	// VerdictCheckRobots defers to robots.txt.
	VerdictCheckRobots DomainVerdict = iota
	// VerdictAllow skips the robots check.
	VerdictAllow
	// VerdictDeny rejects the host outright.
	VerdictDeny
)

// DomainPolicy holds the allow and deny overrides that take precedence over robots.txt.
type DomainPolicy struct {
	allow *domainMatcher
	deny  *domainMatcher
}

// NewDomainPolicy builds a policy from host patterns. A pattern is an exact
// host ("example.com") or a suffix wildcard ("*.example.com" or ".example.com")
// that also matches the bare domain.
func NewDomainPolicy(allow, deny []string) DomainPolicy {
	return DomainPolicy{
		allow: newDomainMatcher(allow),
		deny:  newDomainMatcher(deny),
	}
}

// Evaluate returns the verdict for host. Deny wins over allow.
func (p DomainPolicy) Evaluate(host string) DomainVerdict {
	switch {
	case p.deny.matches(host):
		return VerdictDeny
	case p.allow.matches(host):
		return VerdictAllow
	default:
		return VerdictCheckRobots
	}
}

// domainMatcher stores exact hosts and suffix wildcards.
type domainMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newDomainMatcher(patterns []string) *domainMatcher {
	matcher := &domainMatcher{
		exact: make(map[string]struct{}),
	}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			matcher.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			matcher.addSuffix(strings.TrimPrefix(value, "."))
		default:
			matcher.exact[value] = struct{}{}
		}
	}
	if len(matcher.exact) == 0 && len(matcher.suffixes) == 0 {
		return nil
	}
	return matcher
}

func (m *domainMatcher) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range m.suffixes {
		if existing == suffix {
			return
		}
	}
	m.suffixes = append(m.suffixes, suffix)
}

func (m *domainMatcher) matches(host string) bool {
	if m == nil {
		return false
	}
	host = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(host)), ".")
	if host == "" {
		return false
	}
	if _, exact := m.exact[host]; exact {
		return true
	}
	for _, suffix := range m.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
