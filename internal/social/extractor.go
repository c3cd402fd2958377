// Package social validates and enriches the social links attached to a
// discovered token.
package social

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/domain"
	"dexlead/internal/metrics"
	"dexlead/internal/ratelimit"
)

const (
	socialTimeout = 10 * time.Second
	socialLimit   = 10 // requests per second against social sites
	userAgent     = "Mozilla/5.0 (compatible; DexBot/1.0)"
)

var (
	tgLinkPattern  = regexp.MustCompile(`^https?://t\.me/([A-Za-z0-9_]+)`)
	tgTextPattern  = regexp.MustCompile(`https?://t\.me/[A-Za-z0-9_]+`)
	twitterPattern = regexp.MustCompile(`https?://(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)`)
	genericURL     = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// Telegram paths that are never group links.
var nonGroupNames = map[string]struct{}{
	"share":       {},
	"addstickers": {},
	"joinchat":    {},
	"proxy":       {},
	"socks":       {},
}

// Extractor validates social links over HTTP.
type Extractor struct {
	http     *http.Client
	limiter  *ratelimit.Limiter
	strict   bool
	counters *metrics.Counters
	log      zerolog.Logger
}

// Options configures an Extractor.
type Options struct {
	// Strict discards Twitter links that fail validation instead of
	// keeping them.
	Strict   bool
	Limiters *ratelimit.Group
	Counters *metrics.Counters
	Logger   zerolog.Logger
	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

// NewExtractor creates an Extractor.
func NewExtractor(opts Options) *Extractor {
	limiters := opts.Limiters
	if limiters == nil {
		limiters = ratelimit.NewGroup()
	}
	counters := opts.Counters
	if counters == nil {
		counters = metrics.NewCounters()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: socialTimeout}
	}
	return &Extractor{
		http:     httpClient,
		limiter:  limiters.Get("social_http", socialLimit, time.Second),
		strict:   opts.Strict,
		counters: counters,
		log:      opts.Logger.With().Str("component", "social").Logger(),
	}
}

// ValidateTelegramLink reports whether url points at a public Telegram
// group or channel. Service links (share, joinchat, ...) never qualify.
func (e *Extractor) ValidateTelegramLink(ctx context.Context, link string) (bool, error) {
	match := tgLinkPattern.FindStringSubmatch(link)
	if match == nil {
		return false, nil
	}
	if _, bad := nonGroupNames[strings.ToLower(match[1])]; bad {
		return false, nil
	}

	body, status, err := e.get(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.log.Warn().Str("url", link).Err(err).Msg("telegram link validation failed")
		return false, nil
	}
	if status != http.StatusOK {
		return false, nil
	}
	// A 200 from t.me is a group page; the markers just confirm it.
	lower := strings.ToLower(body)
	if strings.Contains(lower, "tgme_page") ||
		strings.Contains(lower, "members") ||
		strings.Contains(lower, "subscribers") {
		e.log.Debug().Str("url", link).Msg("telegram link validated")
	}
	return true, nil
}

// ValidateTwitterLink checks a Twitter/X link with a HEAD request.
// Network failures count as valid: Twitter routinely blocks automated
// checks and the link came from a curated feed.
func (e *Extractor) ValidateTwitterLink(ctx context.Context, link string) (bool, error) {
	if link == "" {
		return false, nil
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return false, err
	}
	defer e.limiter.Release()

	e.counters.Inc(metrics.Attempt("social_http"))
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return false, nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		e.counters.Inc(metrics.Failure("social_http"))
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.log.Debug().Str("url", link).Err(err).Msg("twitter link validation failed, keeping")
		return true, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound,
		http.StatusSeeOther, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true, nil
	}
	return false, nil
}

// ValidateAndEnrich validates each link and discards the invalid ones.
// The website is normalized to its root domain. The error is non-nil
// only when ctx expires mid-validation.
func (e *Extractor) ValidateAndEnrich(ctx context.Context, socials domain.SocialLinks) (domain.SocialLinks, error) {
	if socials.Telegram != "" {
		ok, err := e.ValidateTelegramLink(ctx, socials.Telegram)
		if err != nil {
			return socials, err
		}
		if !ok {
			e.log.Info().Str("url", socials.Telegram).Msg("invalid telegram link discarded")
			socials.Telegram = ""
		}
	}

	if socials.Twitter != "" {
		ok, err := e.ValidateTwitterLink(ctx, socials.Twitter)
		if err != nil {
			return socials, err
		}
		if e.strict && !ok {
			e.log.Info().Str("url", socials.Twitter).Msg("invalid twitter link discarded")
			socials.Twitter = ""
		}
	}

	if socials.Website != "" {
		socials.Website = NormalizeWebsite(socials.Website)
	}
	return socials, nil
}

func (e *Extractor) get(ctx context.Context, link string) (string, int, error) {
	if err := e.limiter.Acquire(ctx); err != nil {
		return "", 0, err
	}
	defer e.limiter.Release()

	e.counters.Inc(metrics.Attempt("social_http"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		e.counters.Inc(metrics.Failure("social_http"))
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

// NormalizeWebsite reduces a URL to its lowercased root domain, without
// a www. prefix or port.
func NormalizeWebsite(raw string) string {
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	domain := parsed.Host
	if domain == "" {
		domain = parsed.Path
	}
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.IndexByte(domain, ':'); i >= 0 {
		domain = domain[:i]
	}
	return strings.ToLower(domain)
}

// ExtractLinksFromText pulls Telegram, Twitter and website links out of
// free-form text such as a group description or pinned message. The
// first non-social URL becomes the website.
func ExtractLinksFromText(text string) domain.SocialLinks {
	var links domain.SocialLinks

	if m := tgTextPattern.FindString(text); m != "" {
		links.Telegram = m
	}
	if m := twitterPattern.FindString(text); m != "" {
		links.Twitter = m
	}

	for _, raw := range genericURL.FindAllString(text, -1) {
		link := strings.TrimRight(raw, ".,!)")
		parsed, err := url.Parse(link)
		if err != nil {
			continue
		}
		domainName := strings.ToLower(parsed.Host)
		if isSocialDomain(domainName) {
			continue
		}
		links.Website = link
		break
	}
	return links
}

func isSocialDomain(domain string) bool {
	for _, s := range []string{"t.me", "twitter.com", "x.com", "telegram.org", "discord"} {
		if strings.Contains(domain, s) {
			return true
		}
	}
	return false
}
