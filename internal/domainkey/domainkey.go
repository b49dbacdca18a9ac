package domainkey

import (
	"net/url"
	"strings"
)

// Normalize derives a canonical, filesystem-safe key from a URL or a bare
// domain string. The result is lowercase, carries no www. prefix and
// contains no ':' or '/' characters. Normalization is idempotent.
func Normalize(urlOrDomain string) string {
	domain := urlOrDomain

	if strings.HasPrefix(urlOrDomain, "http://") || strings.HasPrefix(urlOrDomain, "https://") {
		if u, err := url.Parse(urlOrDomain); err == nil {
			domain = u.Host
		}
	}

	domain = strings.ToLower(domain)
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.ReplaceAll(domain, ":", "_")
	domain = strings.ReplaceAll(domain, "/", "_")

	return domain
}
