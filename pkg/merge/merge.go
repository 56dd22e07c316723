// Package merge combines GDSII libraries into a single output stream.
//
// Inputs are decoded in order, their structure names are resolved against
// one resolver, and deep copies of their structures are rewritten and
// concatenated into a library carrying the header of the first input. The
// output is encoded in memory, uploaded next to its destination and moved
// into place, so a failed merge never leaves a partial output behind.
package merge

import (
	"bytes"
	"context"
	"math"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/logging"
	"github.com/arthur-debert/gdsmerge/pkg/naming"
	"github.com/arthur-debert/gdsmerge/pkg/rewrite"
	"github.com/arthur-debert/gdsmerge/pkg/utils"
	"github.com/jinzhu/copier"
	"github.com/minio/highwayhash"
	"github.com/viant/afs"
)

var digestKey = []byte("gdsmerge/output-digest/v1-000000")

// Input describes what happened to one input library.
type Input struct {
	Path       string
	Library    string
	Structures int
	// Renames maps every original name of the input to its final name.
	Renames naming.RenameMap
}

// Renamed is the number of structures that received a new name.
func (in Input) Renamed() int {
	return len(in.Renames.Renamed())
}

// Result summarizes a completed merge.
type Result struct {
	Output     string
	Library    string
	Units      gds.Units
	Structures int
	Bytes      int
	Digest     uint64
	Inputs     []Input
}

// Renamed is the total number of renamed structures.
func (r *Result) Renamed() int {
	n := 0
	for _, in := range r.Inputs {
		n += in.Renamed()
	}
	return n
}

// Merge merges inputs, in order, into output.
func Merge(ctx context.Context, output string, inputs []string, opts Options) (*Result, error) {
	logger := logging.GetLogger("merge")
	opts = opts.withDefaults()

	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "at least one input file is required")
	}
	if output == "" {
		return nil, errors.New(errors.ErrInvalidInput, "an output file is required")
	}

	done := logging.LogOperationStart(logger, "read")
	libs := make([]*gds.Library, len(inputs))
	for i, path := range inputs {
		lib, err := Load(ctx, opts.FS, path)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			if err := checkUnits(libs[0].Units, lib.Units, opts.UnitTolerance); err != nil {
				return nil, errors.Contextf(err, "%s", path).WithDetail("path", path)
			}
		}
		libs[i] = lib
	}
	done()

	done = logging.LogOperationStart(logger, "resolve")
	names := make([][]string, len(libs))
	for i, lib := range libs {
		names[i] = lib.Names()
	}
	maps, err := naming.NewResolver(opts.Naming...).RenameMaps(names)
	if err != nil {
		return nil, err
	}
	done()

	done = logging.LogOperationStart(logger, "rewrite")
	merged, err := newMergedLibrary(libs[0], opts.LibraryName)
	if err != nil {
		return nil, err
	}
	result := &Result{Output: output, Library: merged.Name, Units: merged.Units}
	for i, lib := range libs {
		work, err := clone(lib)
		if err != nil {
			return nil, errors.Contextf(err, "%s", inputs[i]).WithDetail("path", inputs[i])
		}
		if err := rewrite.Library(work, maps[i]); err != nil {
			return nil, errors.Contextf(err, "%s", inputs[i]).WithDetail("path", inputs[i])
		}
		merged.Structures = append(merged.Structures, work.Structures...)
		result.Inputs = append(result.Inputs, Input{
			Path:       inputs[i],
			Library:    lib.Name,
			Structures: len(lib.Structures),
			Renames:    maps[i],
		})
	}
	done()

	done = logging.LogOperationStart(logger, "write")
	data, err := gds.Encode(merged)
	if err != nil {
		return nil, errors.Contextf(err, "%s", output).WithDetail("path", output)
	}
	if result.Digest, err = Digest(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to hash output")
	}
	result.Structures = len(merged.Structures)
	result.Bytes = len(data)

	if opts.BeforePublish != nil {
		if err := opts.BeforePublish(ctx, result); err != nil {
			return nil, err
		}
	}
	if err := publish(ctx, opts, output, data); err != nil {
		return nil, err
	}
	done()

	logger.Info().
		Str("output", output).
		Int("inputs", len(inputs)).
		Int("structures", result.Structures).
		Int("renamed", result.Renamed()).
		Uint64("digest", result.Digest).
		Msg("Merge complete")
	return result, nil
}

// Load reads and decodes one stream file. Errors carry the path.
func Load(ctx context.Context, fs afs.Service, path string) (*gds.Library, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, utils.Location(path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path).
			WithDetail("path", path)
	}
	lib, err := gds.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Contextf(err, "%s", path).WithDetail("path", path)
	}
	logger := logging.GetLogger("merge")
	logger.Debug().
		Str("path", path).
		Str("library", lib.Name).
		Int("structures", len(lib.Structures)).
		Msg("Input decoded")
	return lib, nil
}

// Digest is the 64-bit HighwayHash of an encoded stream.
func Digest(data []byte) (uint64, error) {
	h, err := highwayhash.New64(digestKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// newMergedLibrary starts the output library from a copy of the first
// input's header.
func newMergedLibrary(first *gds.Library, name string) (*gds.Library, error) {
	merged := &gds.Library{}
	if err := copier.CopyWithOption(merged, first, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to copy library header")
	}
	merged.Structures = nil
	if name != "" {
		merged.Name = name
	}
	return merged, nil
}

// clone deep-copies lib so rewriting never touches the decoded input.
func clone(lib *gds.Library) (*gds.Library, error) {
	work := &gds.Library{}
	if err := copier.CopyWithOption(work, lib, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to copy library")
	}
	return work, nil
}

func checkUnits(want, got gds.Units, tolerance float64) error {
	if within(want.UserUnit, got.UserUnit, tolerance) && within(want.DBUnit, got.DBUnit, tolerance) {
		return nil
	}
	return errors.Newf(errors.ErrUnitMismatch,
		"units %g/%g differ from %g/%g of the first input",
		got.UserUnit, got.DBUnit, want.UserUnit, want.DBUnit).
		WithDetails(map[string]interface{}{
			"user_unit":          got.UserUnit,
			"db_unit":            got.DBUnit,
			"expected_user_unit": want.UserUnit,
			"expected_db_unit":   want.DBUnit,
		})
}

func within(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance*math.Max(math.Abs(a), math.Abs(b))
}

// publish uploads data to a staging location and moves it onto output. The
// staging file is removed when either step fails.
func publish(ctx context.Context, opts Options, output string, data []byte) error {
	dest := utils.Location(output)
	staging := utils.Location(output + opts.StagingSuffix)
	logger := logging.GetLogger("merge")

	if err := opts.FS.Upload(ctx, staging, opts.FileMode, bytes.NewReader(data)); err != nil {
		discard(ctx, opts.FS, staging)
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", output).
			WithDetail("path", output)
	}
	if err := opts.FS.Move(ctx, staging, dest); err != nil {
		discard(ctx, opts.FS, staging)
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot move output into %s", output).
			WithDetail("path", output)
	}
	logger.Debug().Str("staging", staging).Str("output", dest).Int("bytes", len(data)).Msg("Output published")
	return nil
}

func discard(ctx context.Context, fs afs.Service, url string) {
	if ok, _ := fs.Exists(ctx, url); !ok {
		return
	}
	if err := fs.Delete(ctx, url); err != nil {
		logger := logging.GetLogger("merge")
		logger.Warn().Err(err).Str("path", url).Msg("Failed to remove staging file")
	}
}

