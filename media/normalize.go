// Package media harvests audio, video and embed references from a rendered
// article and reduces them to canonical links.
package media

import (
	"regexp"
	"strings"

	"github.com/pevans/newscapture/record"
)

// DefaultEmbedPattern matches first-party embed URLs ending in a numeric id.
// The first capture group is the canonical form.
var DefaultEmbedPattern = regexp.MustCompile(`^(https?://[^/?#]+(?:/[^/?#]+)*/embed/\d+)(?:[/?#].*)?$`)

// DefaultThirdPartyEmbeds lists known third-party embed URL fragments.
var DefaultThirdPartyEmbeds = []string{
	"youtube.com/embed/",
	"youtube-nocookie.com/embed/",
	"player.vimeo.com/video/",
	"dailymotion.com/embed/",
}

// Normalizer canonicalizes media URLs. Rules apply in order: numeric embed
// pattern, third-party embed, then fragment stripping.
type Normalizer struct {
	EmbedPattern     *regexp.Regexp
	ThirdPartyEmbeds []string
}

// DefaultNormalizer returns a normalizer using the default rules.
func DefaultNormalizer() Normalizer {
	return Normalizer{
		EmbedPattern:     DefaultEmbedPattern,
		ThirdPartyEmbeds: DefaultThirdPartyEmbeds,
	}
}

// Normalize returns the canonical form of u. Normalize is idempotent.
func (n Normalizer) Normalize(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}

	if n.EmbedPattern != nil {
		if m := n.EmbedPattern.FindStringSubmatch(u); len(m) > 1 {
			return m[1]
		}
	}

	lower := strings.ToLower(u)
	for _, frag := range n.ThirdPartyEmbeds {
		if strings.Contains(lower, frag) {
			return cutAny(u, "?#")
		}
	}

	return cutAny(u, "#")
}

func cutAny(s, chars string) string {
	if i := strings.IndexAny(s, chars); i >= 0 {
		return s[:i]
	}
	return s
}

var (
	audioExt = []string{".mp3", ".m4a", ".aac", ".ogg", ".oga", ".wav", ".opus"}
	videoExt = []string{".mp4", ".m3u8", ".webm", ".mov", ".mpd"}
)

// Kind infers the media kind of a canonical URL.
func Kind(u string) record.MediaKind {
	lower := strings.ToLower(u)
	path := cutAny(lower, "?#")

	switch {
	case strings.Contains(lower, "/embed/") || strings.Contains(lower, "/syndicate/") ||
		strings.Contains(lower, "player.vimeo.com/video/"):
		return record.MediaEmbed
	case hasAnySuffix(path, audioExt) || strings.Contains(lower, "/audio/"):
		return record.MediaAudio
	case hasAnySuffix(path, videoExt) || strings.Contains(lower, "/video/") ||
		strings.Contains(lower, "/player/play/"):
		return record.MediaVideo
	}
	return record.MediaUnknown
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
