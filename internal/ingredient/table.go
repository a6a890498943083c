package ingredient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrNoSynonyms = errors.New("synonym table: missing \"synonyms\" object")

// Entry is one canonical base form with its synonym surface forms.
type Entry struct {
	Base     string
	Synonyms []string
}

// Table is an immutable synonym table. Entries keep the order in which they
// appear in the source document; when a surface form is listed more than once
// the earliest entry owns it.
type Table struct {
	entries  []Entry
	index    map[string]string
	warnings []string
}

// NewTable builds a table from entries in the given order. Every base and
// synonym is folded the same way inputs are; changes made by folding, empty
// forms and duplicate surface forms are reported through Warnings.
func NewTable(entries []Entry) *Table {
	t := &Table{index: make(map[string]string)}
	for _, e := range entries {
		base := Fold(e.Base)
		if base != e.Base {
			t.warnf("base %q is not canonical, using %q", e.Base, base)
		}
		if base == "" {
			t.warnf("empty base dropped with %d synonyms", len(e.Synonyms))
			continue
		}
		entry := Entry{Base: base}
		t.claim(base, base)
		for _, syn := range e.Synonyms {
			form := Fold(syn)
			if form != syn {
				t.warnf("synonym %q of %q is not canonical, using %q", syn, base, form)
			}
			if form == "" {
				t.warnf("empty synonym of %q dropped", base)
				continue
			}
			t.claim(form, base)
			entry.Synonyms = append(entry.Synonyms, form)
		}
		t.entries = append(t.entries, entry)
	}
	return t
}

func (t *Table) claim(form, base string) {
	owner, ok := t.index[form]
	if !ok {
		t.index[form] = base
		return
	}
	if owner != base {
		t.warnf("%q listed under %q and %q, keeping %q", form, owner, base, owner)
	}
}

func (t *Table) warnf(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

// Lookup returns the base form owning the folded key.
func (t *Table) Lookup(key string) (string, bool) {
	base, ok := t.index[key]
	return base, ok
}

// Entries returns a copy of the table entries in source order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Base: e.Base, Synonyms: append([]string(nil), e.Synonyms...)}
	}
	return out
}

func (t *Table) Len() int { return len(t.entries) }

// Warnings lists data-quality problems found while building the table.
func (t *Table) Warnings() []string {
	return append([]string(nil), t.warnings...)
}

// Fingerprint identifies the table contents. Stored keys derived from a table
// with a different fingerprint must be recomputed.
func (t *Table) Fingerprint() string {
	h := sha256.New()
	for _, e := range t.entries {
		io.WriteString(h, e.Base)
		h.Write([]byte{0})
		for _, s := range e.Synonyms {
			io.WriteString(h, s)
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ParseTable reads {"synonyms": {"<base>": ["<synonym>", ...]}} keeping the
// order of the bases as written.
func ParseTable(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var entries []Entry
	found := false
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "synonyms" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("synonym table: field %q: %w", key, err)
			}
			continue
		}
		found = true
		entries, err = readEntries(dec)
		if err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSynonyms
	}
	return NewTable(entries), nil
}

// LoadFile parses a synonym table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("synonym table: %w", err)
	}
	defer f.Close()
	return ParseTable(f)
}

func readEntries(dec *json.Decoder) ([]Entry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var entries []Entry
	for dec.More() {
		base, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var syns []string
		if err := dec.Decode(&syns); err != nil {
			return nil, fmt.Errorf("synonym table: synonyms of %q: %w", base, err)
		}
		entries = append(entries, Entry{Base: base, Synonyms: syns})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("synonym table: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("synonym table: expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("synonym table: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("synonym table: expected %q, got %v", want, tok)
	}
	return nil
}
