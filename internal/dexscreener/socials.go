package dexscreener

import (
	"regexp"
	"strings"

	"dexlead/internal/domain"
)

// Social link extraction is an ordered fold of pure extractor steps
// with first-wins semantics per field: profile links, then pair
// info.socials, then pair info.websites, then a regex scan over the
// profile description. A later source never overrides a set field.

var (
	tgURLPattern      = regexp.MustCompile(`https?://t\.me/\S+`)
	twitterURLPattern = regexp.MustCompile(`https?://(?:twitter\.com|x\.com)/\S+`)
)

type socialSource func(TokenProfile, Pair) domain.SocialLinks

var socialSources = []socialSource{
	fromProfileLinks,
	fromPairSocials,
	fromPairWebsites,
	fromDescription,
}

// ExtractSocials merges the social links found on a profile and its
// pair detail. Pure; independently testable without network access.
func ExtractSocials(profile TokenProfile, pair Pair) domain.SocialLinks {
	var out domain.SocialLinks
	for _, source := range socialSources {
		out = out.Merge(source(profile, pair))
	}
	return out
}

func fromProfileLinks(profile TokenProfile, _ Pair) domain.SocialLinks {
	var out domain.SocialLinks
	for _, link := range profile.Links {
		kind := strings.ToLower(link.Type)
		if kind == "" {
			kind = strings.ToLower(link.Label)
		}
		url := link.URL
		if url == "" {
			continue
		}
		switch {
		case strings.Contains(kind, "telegram") || strings.Contains(url, "t.me"):
			if out.Telegram == "" {
				out.Telegram = url
			}
		case strings.Contains(kind, "twitter") || strings.Contains(url, "x.com") || strings.Contains(url, "twitter.com"):
			if out.Twitter == "" {
				out.Twitter = url
			}
		case strings.Contains(kind, "website"):
			if out.Website == "" {
				out.Website = url
			}
		}
	}
	return out
}

func fromPairSocials(_ TokenProfile, pair Pair) domain.SocialLinks {
	var out domain.SocialLinks
	if pair.Info == nil {
		return out
	}
	for _, social := range pair.Info.Socials {
		platform := strings.ToLower(social.Platform)
		if platform == "" {
			platform = strings.ToLower(social.Type)
		}
		if platform == "" {
			continue
		}
		switch platform {
		case "telegram":
			if out.Telegram == "" {
				out.Telegram = urlOrHandle(social, "https://t.me/")
			}
		case "twitter", "x":
			if out.Twitter == "" {
				out.Twitter = urlOrHandle(social, "https://x.com/")
			}
		}
	}
	return out
}

// urlOrHandle prefers the explicit URL, else synthesizes one from the
// handle.
func urlOrHandle(social SocialEntry, base string) string {
	if social.URL != "" {
		return social.URL
	}
	if social.Handle == "" {
		return ""
	}
	if strings.HasPrefix(social.Handle, "http") {
		return social.Handle
	}
	return base + social.Handle
}

func fromPairWebsites(_ TokenProfile, pair Pair) domain.SocialLinks {
	var out domain.SocialLinks
	if pair.Info == nil {
		return out
	}
	for _, site := range pair.Info.Websites {
		url := site.URL
		if url == "" {
			url = site.Value
		}
		if url != "" && out.Website == "" {
			out.Website = url
		}
	}
	return out
}

// fromDescription scans the free-text description for telegram and
// twitter URLs. Websites are not derived from description text.
func fromDescription(profile TokenProfile, _ Pair) domain.SocialLinks {
	var out domain.SocialLinks
	if m := tgURLPattern.FindString(profile.Description); m != "" {
		out.Telegram = trimURL(m)
	}
	if m := twitterURLPattern.FindString(profile.Description); m != "" {
		out.Twitter = trimURL(m)
	}
	return out
}

// trimURL strips trailing punctuation a regex match may drag along.
func trimURL(url string) string {
	return strings.TrimRight(url, ".,!)")
}
