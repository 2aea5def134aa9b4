package media

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newscapture/extract"
)

// AttrScan collects attrs of every element matching selector. If keep is
// non-nil, only values it accepts are returned.
func AttrScan(name, selector string, attrs []string, keep func(string) bool) Strategy {
	return Strategy{
		Name: name,
		Harvest: func(p Page) ([]string, error) {
			var out []string
			p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				for _, attr := range attrs {
					v, ok := s.Attr(attr)
					if !ok || strings.TrimSpace(v) == "" {
						continue
					}
					if keep == nil || keep(v) {
						out = append(out, v)
					}
				}
			})
			return out, nil
		},
	}
}

// MediaElements scans video and audio tags and their source children.
func MediaElements() Strategy {
	return AttrScan("media-elements", "video, audio, video source, audio source", []string{"src"}, nil)
}

// PrefixLinks collects attr values of elements matching selector that begin
// with one of prefixes, or contain one of them when contains is set.
func PrefixLinks(name, selector, attr string, prefixes ...string) Strategy {
	return AttrScan(name, selector, []string{attr}, func(v string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(v, p) {
				return true
			}
		}
		return false
	})
}

// ContainsLinks collects attr values of elements matching selector that
// contain one of fragments.
func ContainsLinks(name, selector, attr string, fragments ...string) Strategy {
	return AttrScan(name, selector, []string{attr}, func(v string) bool {
		for _, f := range fragments {
			if strings.Contains(v, f) {
				return true
			}
		}
		return false
	})
}

// Encodings decodes a JSON attribute mapping MIME types to {"src": ...}
// objects and returns the src stored under mimeType.
func Encodings(name, selector, attr, mimeType string) Strategy {
	return Strategy{
		Name: name,
		Harvest: func(p Page) ([]string, error) {
			var out []string
			var errs []error
			p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				raw, ok := s.Attr(attr)
				if !ok || raw == "" {
					return
				}
				var enc map[string]any
				if err := json.Unmarshal([]byte(raw), &enc); err != nil {
					errs = append(errs, err)
					return
				}
				if src, ok := extract.Lookup(enc, mimeType, "src").(string); ok && src != "" {
					out = append(out, src)
				}
			})
			return out, errors.Join(errs...)
		},
	}
}

// InitialState scans the embedded window.__INITIAL_STATE__ blob: string
// fields of detail.content that contain prefix, plus every match of pattern
// anywhere in the re-encoded state.
func InitialState(prefix string, pattern *regexp.Regexp) Strategy {
	return Strategy{
		Name: "initial-state",
		Harvest: func(p Page) ([]string, error) {
			state, err := extract.InitialState(p.Doc)
			if err != nil {
				return nil, err
			}

			var out []string
			if content, ok := extract.Lookup(state, "detail", "content").(map[string]any); ok {
				for _, v := range content {
					if s, ok := v.(string); ok && strings.Contains(s, prefix) {
						out = append(out, s)
					}
				}
			}

			encoded, err := json.Marshal(state)
			if err != nil {
				return out, err
			}
			if pattern != nil {
				out = append(out, pattern.FindAllString(string(encoded), -1)...)
			}
			return out, nil
		},
	}
}

// JSONLD reads embedUrl and contentUrl of the video and audio objects
// declared in structured-data blocks.
func JSONLD() Strategy {
	return Strategy{
		Name: "json-ld",
		Harvest: func(p Page) ([]string, error) {
			var out []string
			var errs []error
			p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
				var data any
				if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
					errs = append(errs, err)
					return
				}
				out = append(out, jsonLDMedia(data)...)
			})
			return out, errors.Join(errs...)
		},
	}
}

func jsonLDMedia(data any) []string {
	var out []string
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			out = append(out, jsonLDMedia(item)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			out = append(out, jsonLDMedia(graph)...)
		}
		for _, key := range []string{"video", "audio"} {
			for _, obj := range asObjects(v[key]) {
				for _, field := range []string{"embedUrl", "contentUrl"} {
					if u, ok := obj[field].(string); ok && u != "" {
						out = append(out, u)
					}
				}
			}
		}
	}
	return out
}

func asObjects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var objs []map[string]any
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				objs = append(objs, m)
			}
		}
		return objs
	}
	return nil
}

// RawScan runs every pattern over the raw rendered markup.
func RawScan(patterns ...*regexp.Regexp) Strategy {
	return Strategy{
		Name: "raw-scan",
		Harvest: func(p Page) ([]string, error) {
			var out []string
			for _, re := range patterns {
				out = append(out, re.FindAllString(p.Raw, -1)...)
			}
			return out, nil
		},
	}
}
