package ingredient

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed data/ingredients.json
var defaultTableJSON []byte

var loadDefault = sync.OnceValues(func() (*Engine, error) {
	t, err := ParseTable(bytes.NewReader(defaultTableJSON))
	if err != nil {
		return nil, err
	}
	return NewEngine(t), nil
})

// Default returns the engine built from the bundled synonym table. The table
// is parsed on first use and shared for the life of the process.
func Default() (*Engine, error) {
	return loadDefault()
}

// Load returns the engine for the table at path, or the bundled table when
// path is empty.
func Load(path string) (*Engine, error) {
	if path == "" {
		return Default()
	}
	t, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(t), nil
}
