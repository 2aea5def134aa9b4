// Package extract implements the per-field fallback chain used to pull
// metadata out of a rendered article page.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoMatch is returned by a strategy whose selector matched nothing.
var ErrNoMatch = errors.New("no matching element")

// Strategy extracts one candidate value from a document. An empty value or a
// non-nil error both mean "no result".
type Strategy func(doc *goquery.Document) (string, error)

// Chain is an ordered list of strategies for one named field.
type Chain struct {
	Field      string
	Strategies []Strategy
	// Sentinel replaces the value when every strategy fails. Defaults to
	// "No <field> found".
	Sentinel string
}

// Result is the outcome of running a chain. Strategy is the index of the
// winning strategy, or -1 when the sentinel was used.
type Result struct {
	Value    string
	Found    bool
	Strategy int
}

// NewChain builds a chain for field from strategies.
func NewChain(field string, strategies ...Strategy) Chain {
	return Chain{Field: field, Strategies: strategies}
}

// WithSentinel returns a copy of the chain using sentinel on failure.
func (c Chain) WithSentinel(sentinel string) Chain {
	c.Sentinel = sentinel
	return c
}

// SentinelValue returns the value used when nothing matched.
func (c Chain) SentinelValue() string {
	if c.Sentinel != "" {
		return c.Sentinel
	}
	return fmt.Sprintf("No %s found", c.Field)
}

// Extract tries each strategy in order and returns the first non-empty value.
// A strategy that errors or panics counts as "no result" and the chain moves
// on to the next one.
func (c Chain) Extract(doc *goquery.Document) Result {
	if doc != nil {
		for i, s := range c.Strategies {
			if s == nil {
				continue
			}
			value, err := attempt(s, doc)
			if err != nil {
				continue
			}
			if value = strings.TrimSpace(value); value != "" {
				return Result{Value: value, Found: true, Strategy: i}
			}
		}
	}
	return Result{Value: c.SentinelValue(), Found: false, Strategy: -1}
}

// attempt runs a single strategy, converting a panic inside it into an error.
func attempt(s Strategy, doc *goquery.Document) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = ""
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	return s(doc)
}
