package market

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Ticker maps a company display name to its market symbol.
type Ticker struct {
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// Registry is the ordered set of companies the dashboard charts. Order is
// significant: table rows follow it.
type Registry []Ticker

// DefaultTickers is the registry used when the config does not override it.
// The display names are the ones users have bookmarked selections with, typos
// included.
var DefaultTickers = Registry{
	{Name: "apple", Symbol: "AAPL"},
	{Name: "facebook", Symbol: "META"},
	{Name: "google", Symbol: "GOOGL"},
	{Name: "microsft", Symbol: "MSFT"},
	{Name: "netfilix", Symbol: "NFLX"},
	{Name: "amazon", Symbol: "AMZN"},
}

// DefaultSelection is the preselected subset of company names.
var DefaultSelection = []string{"google", "amazon", "facebook", "apple"}

// Names returns the display names in registry order.
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, t := range r {
		names[i] = t.Name
	}
	return names
}

// Lookup returns the ticker for a display name.
func (r Registry) Lookup(name string) (Ticker, bool) {
	for _, t := range r {
		if t.Name == name {
			return t, true
		}
	}
	return Ticker{}, false
}

// Validate checks that names and symbols are present and names are unique.
func (r Registry) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("registry is empty")
	}
	seen := make(map[string]bool, len(r))
	for i, t := range r {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("ticker %d: name is required", i)
		}
		if strings.TrimSpace(t.Symbol) == "" {
			return fmt.Errorf("ticker %q: symbol is required", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate ticker name: %s", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Fingerprint is a stable digest of the ordered (name, symbol) pairs. Two
// registries with the same fingerprint produce the same Price Table.
func (r Registry) Fingerprint() string {
	h := sha256.New()
	for _, t := range r {
		fmt.Fprintf(h, "%s\x00%s\x1e", t.Name, t.Symbol)
	}
	return hex.EncodeToString(h.Sum(nil))
}
