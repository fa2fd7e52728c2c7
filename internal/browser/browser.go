// Package browser extracts the chat site's cookies from local web browsers,
// so the widget can reuse a session and anti-forgery token issued to the
// browser.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"

	"github.com/diogo/chatwidget/internal/config"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns a list of all supported browsers, in the
// order they are tried for BrowserAuto
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}
}

func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of cookie extraction
type ExtractResult struct {
	Cookies     *config.Cookies
	BrowserName string
}

// Extractor finds site cookies in a browser
type Extractor interface {
	ExtractSiteCookies(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error)
}

// KookyExtractor reads cookie stores from disk with kooky
type KookyExtractor struct{}

// ExtractSiteCookies implements Extractor
func (KookyExtractor) ExtractSiteCookies(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	return ExtractSiteCookies(ctx, browser, host)
}

// ExtractSiteCookies extracts every valid cookie scoped to host
func ExtractSiteCookies(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	host = normalizeHost(host)
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}

	if browser == BrowserAuto {
		var lastErr error
		for _, b := range AllSupportedBrowsers() {
			result, err := extractFromBrowser(ctx, b, host)
			if err == nil {
				return result, nil
			}
			lastErr = err
		}
		return nil, fmt.Errorf("could not find cookies for %s in any browser: %w", host, lastErr)
	}
	return extractFromBrowser(ctx, browser, host)
}

// extractFromBrowser tries every profile of browser until one has cookies for host
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matching []kooky.CookieStore
	for _, store := range stores {
		if matchesBrowser(store.Browser(), browser) {
			matching = append(matching, store)
		} else {
			_ = store.Close()
		}
	}
	defer func() {
		for _, s := range matching {
			_ = s.Close()
		}
	}()

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matching {
		result, err := extractFromStore(ctx, store, host)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// matchesBrowser checks if a browser name reported by kooky matches target
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

func extractFromStore(ctx context.Context, store kooky.CookieStore, host string) (*ExtractResult, error) {
	found := config.NewCookies(nil)
	// Exact-domain cookies win over ones set for a parent domain
	exact := make(map[string]bool)

	cookies := store.TraverseCookies(
		kooky.Valid,
		kooky.DomainContains(registrableSuffix(host)),
	).OnlyCookies()

	for cookie := range cookies {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !domainMatches(cookie.Domain, host) {
			continue
		}
		isExact := strings.TrimPrefix(cookie.Domain, ".") == host
		if found.Get(cookie.Name) == "" || (isExact && !exact[cookie.Name]) {
			found.Set(cookie.Name, cookie.Value)
			exact[cookie.Name] = isExact
		}
	}

	displayName := store.Browser()
	if profile := store.Profile(); profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", displayName, profile)
	}

	if found.Len() == 0 {
		return nil, fmt.Errorf("no cookies for %s in %s; open the chat page in that browser first", host, displayName)
	}

	return &ExtractResult{Cookies: found, BrowserName: displayName}, nil
}

// domainMatches applies cookie domain matching: a cookie for "example.com"
// or ".example.com" is sent to example.com and its subdomains
func domainMatches(cookieDomain, host string) bool {
	d := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	h := strings.ToLower(host)
	if d == "" {
		return false
	}
	return h == d || strings.HasSuffix(h, "."+d)
}

// registrableSuffix returns the last two labels of host, which every
// matching cookie domain contains
func registrableSuffix(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// normalizeHost strips scheme, port and path from a host or URL
func normalizeHost(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s, "]") {
		s = s[:i]
	}
	return s
}

// ListAvailableBrowsers returns a list of browsers that have cookie stores
func ListAvailableBrowsers() []string {
	stores := kooky.FindAllCookieStores(context.Background())
	var browsers []string

	seen := make(map[string]bool)
	for _, store := range stores {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		_ = store.Close()
	}

	return browsers
}
