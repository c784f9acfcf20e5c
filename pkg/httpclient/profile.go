package httpclient

// HeaderProfile is a named set of request headers. Impersonating profiles are
// sent through the browser-like client, the rest through the plain one.
type HeaderProfile struct {
	Name        string
	Headers     map[string]string
	Impersonate bool
}

// PrimaryProfile impersonates a desktop browser for direct page fetches.
func PrimaryProfile(userAgent, referer, acceptLanguage string) HeaderProfile {
	return HeaderProfile{
		Name: "primary",
		Headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": acceptLanguage,
			"Referer":         referer,
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		Impersonate: true,
	}
}

// MinimalProfile carries only a user agent; used for relay calls.
func MinimalProfile(userAgent string) HeaderProfile {
	return HeaderProfile{
		Name: "minimal",
		Headers: map[string]string{
			"User-Agent": userAgent,
		},
	}
}

// SameOriginProfile mimics an in-page XHR from the target site itself.
func SameOriginProfile(userAgent, origin, acceptLanguage string) HeaderProfile {
	return HeaderProfile{
		Name: "same-origin",
		Headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": acceptLanguage,
			"Referer":         origin + "/jobs/search",
			"Origin":          origin,
			"Connection":      "keep-alive",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "same-origin",
		},
		Impersonate: true,
	}
}

// FeedProfile asks for a syndication feed.
func FeedProfile(userAgent string) HeaderProfile {
	return HeaderProfile{
		Name: "feed",
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/rss+xml",
		},
	}
}
