// Package template opens layout templates of any supported format as
// in-memory documents.
//
// Native files (.json, .yaml, .yml, .toml) are loaded directly; .idml
// packages are imported read-only through [idml.Read].
package template

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/document/idml"
	"github.com/matzehuels/aizine/pkg/errors"
)

// Extensions lists the template formats Open accepts.
var Extensions = []string{".json", ".yaml", ".yml", ".toml", ".idml"}

// Supported reports whether path has a template extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Open loads the template at path.
func Open(path string, opts ...document.Option) (*document.Doc, error) {
	if !Supported(path) {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported template format %q", filepath.Ext(path))
	}
	if strings.ToLower(filepath.Ext(path)) != ".idml" {
		return document.Open(path, opts...)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "template not found: %s", path)
	}
	f, err := idml.Read(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "import %s", path)
	}
	return document.FromFile(f.Name, f, opts...)
}
