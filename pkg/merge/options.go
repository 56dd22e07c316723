package merge

import (
	"context"
	"os"

	"github.com/arthur-debert/gdsmerge/pkg/naming"
	"github.com/viant/afs"
)

const (
	// DefaultStagingSuffix is appended to the output path while it is written.
	DefaultStagingSuffix = ".partial"
	// DefaultFileMode is the permission of a newly created output file.
	DefaultFileMode os.FileMode = 0644
)

// Options configures a merge. The zero value merges with the defaults.
type Options struct {
	// LibraryName replaces the LIBNAME of the output. Empty keeps the
	// name of the first input.
	LibraryName string

	// UnitTolerance is the relative difference allowed between the units of
	// the first input and any other. Zero requires identical units.
	UnitTolerance float64

	// Naming configures the resolver that allocates final structure names.
	Naming []naming.Option

	StagingSuffix string
	FileMode      os.FileMode

	// FS reads inputs and writes the output. Defaults to afs.New().
	FS afs.Service

	// BeforePublish runs once the output is encoded and result is complete,
	// before anything is written to the output location. An error aborts
	// the merge and no output is created.
	BeforePublish func(ctx context.Context, result *Result) error
}

func (o Options) withDefaults() Options {
	if o.StagingSuffix == "" {
		o.StagingSuffix = DefaultStagingSuffix
	}
	if o.FileMode == 0 {
		o.FileMode = DefaultFileMode
	}
	if o.FS == nil {
		o.FS = afs.New()
	}
	return o
}
