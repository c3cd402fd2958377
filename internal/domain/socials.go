package domain

// SocialLinks holds the social links extracted for a token.
// Empty string means "not found". Once a field is set by a
// higher-priority source it is never overwritten by a lower one.
type SocialLinks struct {
	Telegram string
	Twitter  string
	Website  string
}

// Merge fills empty fields of s from other, never overwriting set ones.
func (s SocialLinks) Merge(other SocialLinks) SocialLinks {
	if s.Telegram == "" {
		s.Telegram = other.Telegram
	}
	if s.Twitter == "" {
		s.Twitter = other.Twitter
	}
	if s.Website == "" {
		s.Website = other.Website
	}
	return s
}
