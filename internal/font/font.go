// Package font resolves the default font a render context loads at
// creation. Fonts are identified by a name and optionally a file path;
// without a path a built-in Go font is used. Font data is validated before
// it reaches a backend.
package font

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	tsfont "github.com/go-text/typesetting/font"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultName is the identifier the canvas registers its font under.
const DefaultName = "sans"

// ErrEmptyFont is returned for zero-length font data.
var ErrEmptyFont = errors.New("font data is empty")

// builtin maps identifiers to embedded TrueType data.
var builtin = map[string][]byte{
	"sans":        goregular.TTF,
	"sans-bold":   gobold.TTF,
	"sans-italic": goitalic.TTF,
	"mono":        gomono.TTF,
}

// Resource is validated font data ready to hand to a backend.
type Resource struct {
	// Name is the identifier the font is registered under.
	Name string
	// Path is the file the data came from; empty for built-in fonts.
	Path string
	// Data is the raw font file.
	Data []byte
	// UnitsPerEm is read from the font header.
	UnitsPerEm uint16
}

// Source describes where the data came from, for logging.
func (r *Resource) Source() string {
	if r.Path == "" {
		return "builtin"
	}
	return r.Path
}

// Load resolves a font. A non-empty path is read from disk. An empty path
// selects the built-in font named name, or the regular built-in face when
// name is not a built-in identifier.
func Load(name, path string) (*Resource, error) {
	if name == "" {
		name = DefaultName
	}
	if path == "" {
		return Builtin(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	res, err := FromBytes(name, data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// LoadFS is Load reading from fsys instead of the host filesystem.
func LoadFS(fsys fs.FS, name, path string) (*Resource, error) {
	if name == "" {
		name = DefaultName
	}
	if path == "" {
		return Builtin(name)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	res, err := FromBytes(name, data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// Builtin returns the embedded font registered as name.
func Builtin(name string) (*Resource, error) {
	data, ok := builtin[strings.ToLower(name)]
	if !ok {
		data = goregular.TTF
	}
	return FromBytes(name, data)
}

// BuiltinNames lists the built-in identifiers in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromBytes validates TrueType or OpenType data and wraps it as a Resource.
func FromBytes(name string, data []byte) (*Resource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}
	face, err := tsfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Resource{
		Name:       name,
		Data:       data,
		UnitsPerEm: face.Upem(),
	}, nil
}
