package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoState is returned when a page carries no parsable embedded state.
var ErrNoState = errors.New("no embedded state")

var initialStatePattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s?=\s?(\{.*\});?`)

// InitialState locates the window.__INITIAL_STATE__ assignment in the page's
// inline scripts and decodes it.
func InitialState(doc *goquery.Document) (map[string]any, error) {
	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "window.__INITIAL_STATE__") {
			return true
		}
		if m := initialStatePattern.FindStringSubmatch(text); m != nil {
			raw = m[1]
			return false
		}
		return true
	})
	if raw == "" {
		return nil, ErrNoState
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, errors.Join(ErrNoState, err)
	}
	return state, nil
}

// StateAuthors reads author names and the content source out of the
// embedded state, joined with ", ".
func StateAuthors() Strategy {
	return func(doc *goquery.Document) (string, error) {
		state, err := InitialState(doc)
		if err != nil {
			return "", err
		}

		var names []string
		switch authors := state["author"].(type) {
		case map[string]any:
			if name, ok := authors["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		case []any:
			for _, a := range authors {
				if m, ok := a.(map[string]any); ok {
					if name, ok := m["name"].(string); ok && name != "" {
						names = append(names, name)
					}
				}
			}
		}

		if source, ok := Lookup(state, "detail", "content", "source").(string); ok && source != "" {
			names = append(names, source)
		}
		return strings.Join(names, ", "), nil
	}
}

// Lookup walks nested JSON objects by key and returns the value found, or nil.
func Lookup(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}
