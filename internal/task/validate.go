// Package task holds the pure rules for engagement tasks: which actions a
// platform admits, what a valid link looks like per platform, and how links
// are normalized before the active-task uniqueness check.
package task

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	PlatformYouTube   = "YouTube"
	PlatformInstagram = "Instagram"
	PlatformFacebook  = "Facebook"
)

const (
	ActionLike      = "Like"
	ActionSubscribe = "Subscribe"
	ActionFollow    = "Follow"
)

// actionsByPlatform is the fixed compatibility table. Unlisted combinations
// are invalid.
var actionsByPlatform = map[string][]string{
	PlatformYouTube:   {ActionLike, ActionSubscribe},
	PlatformInstagram: {ActionLike, ActionFollow},
	PlatformFacebook:  {ActionLike, ActionFollow},
}

var linkPatterns = map[string]*regexp.Regexp{
	PlatformYouTube:   regexp.MustCompile(`(?i)^https?://(www\.)?(youtube\.com|youtu\.be)/.+`),
	PlatformInstagram: regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/.+`),
	PlatformFacebook:  regexp.MustCompile(`(?i)^https?://(www\.)?facebook\.com/.+`),
}

// Platforms returns the known platforms in a stable order.
func Platforms() []string {
	return []string{PlatformYouTube, PlatformInstagram, PlatformFacebook}
}

// ActionsFor returns the actions a platform admits, or nil for an unknown
// platform.
func ActionsFor(platform string) []string {
	return actionsByPlatform[platform]
}

// ValidAction reports whether the platform admits the action.
func ValidAction(platform, action string) bool {
	for _, a := range actionsByPlatform[platform] {
		if a == action {
			return true
		}
	}
	return false
}

// ValidLink reports whether the link matches the platform's URL pattern.
func ValidLink(platform, link string) bool {
	p, ok := linkPatterns[platform]
	if !ok {
		return false
	}
	return p.MatchString(link)
}

// NormalizeLink canonicalizes a link for duplicate detection: the scheme is
// coerced to https, the whole URL is case-folded, and a trailing slash is
// stripped. Two submissions differing only in those respects collide.
func NormalizeLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Scheme = "https"
	normalized := strings.ToLower(u.String())
	normalized = strings.TrimSuffix(normalized, "/")
	return normalized, nil
}
