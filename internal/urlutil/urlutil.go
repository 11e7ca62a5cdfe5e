// Package urlutil validates and normalizes YouTube URLs submitted by
// clients before any task is created for them.
package urlutil

import (
	"net/url"
	"strings"
)

var youtubeHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"www.youtu.be":    true,
}

// IsYouTubeURL reports whether raw is a valid YouTube video URL
// (watch, shorts, embed or youtu.be forms).
func IsYouTubeURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if !youtubeHosts[host] {
		return false
	}

	if host == "youtu.be" || host == "www.youtu.be" {
		return len(strings.Trim(parsed.Path, "/")) > 0
	}

	if parsed.Query().Get("v") != "" {
		return true
	}

	parts := strings.Split(parsed.Path, "/")
	for _, p := range parts {
		if p == "shorts" || p == "embed" {
			return true
		}
	}
	return false
}

// ExtractVideoID pulls the video identifier out of a YouTube URL. Returns
// an empty string if none can be found.
func ExtractVideoID(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "youtu.be" || host == "www.youtu.be" {
		return strings.SplitN(strings.Trim(parsed.Path, "/"), "/", 2)[0]
	}

	if id := parsed.Query().Get("v"); id != "" {
		return id
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, p := range parts {
		if (p == "shorts" || p == "embed") && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// Sanitize splits free-form input (whitespace or newline separated) into
// valid, de-duplicated YouTube URLs, preserving first-seen order.
func Sanitize(input string) []string {
	seen := make(map[string]bool)
	var urls []string

	for _, candidate := range strings.Fields(input) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || !IsYouTubeURL(candidate) {
			continue
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		urls = append(urls, candidate)
	}
	return urls
}
