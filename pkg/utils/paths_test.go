package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/layout")

	assert.Equal(t, "/home/layout", ExpandHome("~"))
	assert.Equal(t, "/home/layout/chips/top.gds", ExpandHome("~/chips/top.gds"))
	assert.Equal(t, "a~/b.gds", ExpandHome("a~/b.gds"))
	assert.Equal(t, "$HOME/top.gds", ExpandHome("$HOME/top.gds"))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/layout")
	t.Setenv("GDS_DIR", "/data/gds")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"home", "~", "/home/layout"},
		{"home prefix", "~/chips/top.gds", "/home/layout/chips/top.gds"},
		{"env", "$GDS_DIR/top.gds", "/data/gds/top.gds"},
		{"plain", "top.gds", "top.gds"},
		{"url", "mem://localhost/$GDS_DIR", "mem://localhost/$GDS_DIR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLocation(t *testing.T) {
	t.Setenv("HOME", "/home/layout")
	t.Setenv("GDS_DIR", "/data/gds")

	assert.Equal(t, "mem://localhost/out.gds", Location("mem://localhost/out.gds"))
	assert.Equal(t, "/home/layout/out.gds", Location("~/out.gds"))

	wd, err := filepath.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "out.gds"), Location("out.gds"))

	tests := []string{"cost$1.gds", "$GDS_DIR/top.gds", "a${b}.gds"}
	for _, name := range tests {
		assert.Equal(t, filepath.Join(wd, name), Location(name), "dollar signs must be kept in %q", name)
	}
}
