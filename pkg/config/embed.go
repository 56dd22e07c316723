package config

import (
	_ "embed"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultContent returns the embedded defaults, which also document every
// key a user config may set.
func DefaultContent() string {
	return string(defaultConfig)
}

// embeddedProvider feeds the embedded defaults to koanf as the lowest layer.
type embeddedProvider struct{ data []byte }

func (p embeddedProvider) ReadBytes() ([]byte, error) { return p.data, nil }

func (p embeddedProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "embedded config must be read with a parser")
}
