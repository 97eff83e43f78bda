package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveCompany infers a canonical domain and a best-guess company name
// from a URL without any network access. The domain is the lowercased
// host with scheme and "www." removed; the name is its first label,
// title-cased.
func DeriveCompany(rawURL string) (domain, name string) {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	domain = s
	if domain == "" {
		return "", ""
	}

	label := domain
	if i := strings.Index(label, "."); i >= 0 {
		label = label[:i]
	}
	name = cases.Title(language.English).String(label)
	return domain, name
}
