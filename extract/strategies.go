package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeSpace collapses runs of whitespace into single spaces.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the normalized text of the first element matching selector.
func Text(selector string) Strategy {
	return func(doc *goquery.Document) (string, error) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", ErrNoMatch
		}
		return NormalizeSpace(sel.Text()), nil
	}
}

// TextAll returns the normalized, non-empty texts of every element matching
// selector joined with sep.
func TextAll(selector, sep string) Strategy {
	return func(doc *goquery.Document) (string, error) {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return "", ErrNoMatch
		}
		var parts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			if text := NormalizeSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		return strings.Join(parts, sep), nil
	}
}

// Attr returns attribute attr of the first element matching selector.
func Attr(selector, attr string) Strategy {
	return func(doc *goquery.Document) (string, error) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", ErrNoMatch
		}
		value, ok := sel.Attr(attr)
		if !ok {
			return "", ErrNoMatch
		}
		return strings.TrimSpace(value), nil
	}
}

// FirstWithPrefix returns the text of the first element matching selector
// whose text starts with one of prefixes, compared case-insensitively.
func FirstWithPrefix(selector string, prefixes ...string) Strategy {
	return func(doc *goquery.Document) (string, error) {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := NormalizeSpace(s.Text())
			lower := strings.ToLower(text)
			for _, p := range prefixes {
				if strings.HasPrefix(lower, strings.ToLower(p)) {
					found = text
					return false
				}
			}
			return true
		})
		if found == "" {
			return "", ErrNoMatch
		}
		return found, nil
	}
}

// Const always yields value.
func Const(value string) Strategy {
	return func(*goquery.Document) (string, error) {
		return value, nil
	}
}

// Transform applies fns, in order, to the value produced by s.
func Transform(s Strategy, fns ...func(string) string) Strategy {
	return func(doc *goquery.Document) (string, error) {
		value, err := s(doc)
		if err != nil {
			return "", err
		}
		for _, fn := range fns {
			value = fn(value)
		}
		return value, nil
	}
}

// TrimPrefixFold strips prefix from a value if present, ignoring case.
func TrimPrefixFold(prefix string) func(string) string {
	return func(s string) string {
		s = strings.TrimSpace(s)
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
		return s
	}
}

// Before keeps the part of a value preceding sep.
func Before(sep string) func(string) string {
	return func(s string) string {
		before, _, _ := strings.Cut(s, sep)
		return strings.TrimSpace(before)
	}
}

// Trim removes leading and trailing characters in cutset along with spaces.
func Trim(cutset string) func(string) string {
	return func(s string) string {
		return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), cutset))
	}
}

// Reject blanks a value equal (ignoring case) to any of values.
func Reject(values ...string) func(string) string {
	return func(s string) string {
		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(s), v) {
				return ""
			}
		}
		return s
	}
}

// PublishedUpdated combines a published and an updated date strategy into
// "pub (Updated: upd)", "Updated: upd" or "pub". Identical values collapse to
// the published one.
func PublishedUpdated(published, updated Strategy) Strategy {
	return func(doc *goquery.Document) (string, error) {
		pub, _ := attempt(published, doc)
		upd, _ := attempt(updated, doc)
		pub, upd = strings.TrimSpace(pub), strings.TrimSpace(upd)
		switch {
		case pub != "" && upd != "" && pub != upd:
			return pub + " (Updated: " + upd + ")", nil
		case pub != "":
			return pub, nil
		case upd != "":
			return "Updated: " + upd, nil
		}
		return "", ErrNoMatch
	}
}
