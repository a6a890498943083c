// Package ingredient turns raw ingredient names into the canonical keys used
// to deduplicate ingredients across recipes.
//
// A key is produced in two stages. The folded name is first looked up in a
// curated synonym table; names the table does not know are reduced with a
// single Polish plural/genitive suffix rule.
package ingredient

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// genitivePlural is the "-ów" ending (U+00F3 U+0077).
const genitivePlural = "ów"

// Engine normalizes ingredient names against a synonym table. It holds no
// mutable state and may be shared by any number of goroutines.
type Engine struct {
	table *Table
}

func NewEngine(table *Table) *Engine {
	if table == nil {
		table = NewTable(nil)
	}
	return &Engine{table: table}
}

func (e *Engine) Table() *Table { return e.table }

// Normalize returns the canonical key for raw. It never fails: names outside
// the table fall back to suffix stripping or pass through folded.
func (e *Engine) Normalize(raw string) string {
	key := Fold(raw)
	if key == "" {
		return ""
	}
	if base, ok := e.table.Lookup(key); ok {
		return base
	}
	return reduce(key)
}

// Fold lowercases s with Polish casing rules and trims surrounding
// whitespace. Input is composed to NFC first so decomposed accents match
// their precomposed forms.
func Fold(s string) string {
	// A Caser carries state between calls and must not be shared.
	lower := cases.Lower(language.Polish)
	return strings.TrimSpace(lower.String(norm.NFC.String(s)))
}

// reduce applies the first matching suffix rule, at most one.
func reduce(key string) string {
	n := utf8.RuneCountInString(key)
	switch {
	case strings.HasSuffix(key, "y") && n > 2:
		return key[:len(key)-1]
	case strings.HasSuffix(key, "i") && n > 2:
		return key[:len(key)-1]
	case strings.HasSuffix(key, genitivePlural) && n > 3:
		return strings.TrimSuffix(key, genitivePlural)
	}
	return key
}
