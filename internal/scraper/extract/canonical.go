package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// postingIDPattern matches the hyphen-prefixed numeric posting ID that
// precedes the query string in a posting link.
var postingIDPattern = regexp.MustCompile(`/view/.*?-(\d+)\?`)

// CanonicalizeURL rewrites a posting link to <scheme>://<host>/jobs/view/<id>/.
// Links that do not carry a posting ID are returned unchanged.
func CanonicalizeURL(raw string) string {
	m := postingIDPattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw
	}
	id := raw[m[2]:m[3]]

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw[:m[0]] + "/view/" + id + "/"
	}
	return fmt.Sprintf("%s://%s/jobs/view/%s/", u.Scheme, u.Host, id)
}

// ResolveURL makes href absolute against base. Unparseable input is returned as is.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
