package merge_test

import (
	"context"
	"os"
	"testing"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/naming"
	"github.com/arthur-debert/gdsmerge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func decodeFile(t *testing.T, path string) *gds.Library {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lib, err := gds.Decode(f)
	require.NoError(t, err)
	return lib
}

func TestMergeCascadingRename(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1",
		testutil.Cell("cell_a"),
		testutil.Cell("cell_b", "cell_a"),
	)
	in2 := ws.WriteLibrary(t, "in2.gds", "LIB2",
		testutil.Cell("cell_a"),
		testutil.Cell("cell_a_2", "cell_a"),
		testutil.Cell("cell_b", "cell_a_2", "cell_a"),
	)
	out := ws.Path("out.gds")

	result, err := merge.Merge(context.Background(), out, []string{in1, in2}, merge.Options{})
	require.NoError(t, err)

	lib := decodeFile(t, out)
	assert.Equal(t, []string{"cell_a", "cell_b", "cell_a_2", "cell_a_2_2", "cell_b_2"}, lib.Names())
	assert.Equal(t, []string{"cell_a"}, lib.Structure("cell_b").References())
	assert.Equal(t, []string{"cell_a_2"}, lib.Structure("cell_a_2_2").References())
	assert.Equal(t, []string{"cell_a_2_2", "cell_a_2"}, lib.Structure("cell_b_2").References())
	assert.Equal(t, "LIB1", lib.Name)

	assert.Equal(t, 5, result.Structures)
	assert.Equal(t, 3, result.Renamed())
	require.Len(t, result.Inputs, 2)
	assert.Equal(t, naming.RenameMap{"cell_a": "cell_a", "cell_b": "cell_b"}, result.Inputs[0].Renames)
	assert.Equal(t, "cell_a_2_2", result.Inputs[1].Renames["cell_a_2"])
	assert.False(t, ws.Exists("out.gds"+merge.DefaultStagingSuffix))
}

func TestMergeReferenceIntegrity(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	var inputs []string
	for _, name := range []string{"a.gds", "b.gds", "c.gds"} {
		inputs = append(inputs, ws.WriteLibrary(t, name, "LIB",
			testutil.Cell("via"),
			testutil.CellSpec{Name: "array", ArrayRefs: []string{"via"}},
			testutil.Cell("top", "array", "via"),
		))
	}
	out := ws.Path("out.gds")

	_, err := merge.Merge(context.Background(), out, inputs, merge.Options{})
	require.NoError(t, err)

	lib := decodeFile(t, out)
	require.Len(t, lib.Structures, 9)
	defined := make(map[string]bool)
	for _, name := range lib.Names() {
		assert.False(t, defined[name], "duplicate structure %q", name)
		defined[name] = true
	}
	for _, s := range lib.Structures {
		for _, target := range s.References() {
			assert.True(t, defined[target], "%s references undefined %s", s.Name, target)
		}
	}
}

func TestMergeSingleInputIsIdentity(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	data := testutil.StreamBytes(t, "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))
	in := ws.WriteStream(t, "in.gds", data)
	out := ws.Path("out.gds")

	result, err := merge.Merge(context.Background(), out, []string{in}, merge.Options{})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, len(data), result.Bytes)
	assert.Zero(t, result.Renamed())
}

func TestMergeDropsTrailingPadding(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	data := testutil.StreamBytes(t, "LIB", testutil.Cell("top"))
	padded := append(append([]byte(nil), data...), make([]byte, 2048-len(data)%2048)...)
	in := ws.WriteStream(t, "in.gds", padded)
	out := ws.Path("out.gds")

	_, err := merge.Merge(context.Background(), out, []string{in}, merge.Options{})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMergeIsDeterministic(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1", testutil.Cell("a"), testutil.Cell("top", "a"))
	in2 := ws.WriteLibrary(t, "in2.gds", "LIB2", testutil.Cell("a"), testutil.Cell("top", "a"))

	first, err := merge.Merge(context.Background(), ws.Path("one.gds"), []string{in1, in2}, merge.Options{})
	require.NoError(t, err)
	second, err := merge.Merge(context.Background(), ws.Path("two.gds"), []string{in1, in2}, merge.Options{})
	require.NoError(t, err)

	one, err := os.ReadFile(ws.Path("one.gds"))
	require.NoError(t, err)
	two, err := os.ReadFile(ws.Path("two.gds"))
	require.NoError(t, err)
	assert.Equal(t, one, two)
	assert.Equal(t, first.Digest, second.Digest)

	digest, err := merge.Digest(one)
	require.NoError(t, err)
	assert.Equal(t, digest, first.Digest)
}

func TestMergeOrderSensitive(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1", testutil.Cell("a"), testutil.Cell("a_2"))
	in2 := ws.WriteLibrary(t, "in2.gds", "LIB2", testutil.Cell("a"))

	_, err := merge.Merge(context.Background(), ws.Path("fwd.gds"), []string{in1, in2}, merge.Options{})
	require.NoError(t, err)
	_, err = merge.Merge(context.Background(), ws.Path("rev.gds"), []string{in2, in1}, merge.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a_2", "a_3"}, decodeFile(t, ws.Path("fwd.gds")).Names())
	assert.Equal(t, []string{"a", "a_2", "a_2_2"}, decodeFile(t, ws.Path("rev.gds")).Names())
}

func TestMergeOptions(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1", testutil.Cell("pad"))
	in2 := ws.WriteLibrary(t, "in2.gds", "LIB2", testutil.Cell("pad"))
	out := ws.Path("out.gds")

	result, err := merge.Merge(context.Background(), out, []string{in1, in2}, merge.Options{
		LibraryName: "TOP",
		Naming:      []naming.Option{naming.WithSeparator("$"), naming.WithFirstSuffix(1)},
		FileMode:    0600,
	})
	require.NoError(t, err)

	lib := decodeFile(t, out)
	assert.Equal(t, "TOP", lib.Name)
	assert.Equal(t, "TOP", result.Library)
	assert.Equal(t, []string{"pad", "pad$1"}, lib.Names())
}

func TestMergeErrors(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	good := ws.WriteLibrary(t, "good.gds", "LIB", testutil.Cell("top"))
	full := testutil.StreamBytes(t, "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))
	truncated := ws.WriteStream(t, "truncated.gds", full[:len(full)-5])
	dangling := ws.WriteLibrary(t, "dangling.gds", "LIB", testutil.Cell("top", "ghost"))
	ws.WriteStream(t, "blocker", []byte("not a directory"))

	mismatchData, err := gds.Encode(testutil.BuildLibrary(t, "LIB",
		gds.Units{UserUnit: 1e-3, DBUnit: 1e-6}, testutil.Cell("other")))
	require.NoError(t, err)
	mismatch := ws.WriteStream(t, "mismatch.gds", mismatchData)

	tests := []struct {
		name     string
		output   string
		inputs   []string
		wantCode errors.ErrorCode
		wantPath string
	}{
		{"no inputs", "out.gds", nil, errors.ErrInvalidInput, ""},
		{"missing input", "out.gds", []string{good, ws.Path("missing.gds")}, errors.ErrFileAccess, ws.Path("missing.gds")},
		{"truncated input", "out.gds", []string{good, truncated}, errors.ErrFormat, truncated},
		{"dangling reference", "out.gds", []string{good, dangling}, errors.ErrDanglingReference, dangling},
		{"unit mismatch", "out.gds", []string{good, mismatch}, errors.ErrUnitMismatch, mismatch},
		{"unwritable output", "blocker/out.gds", []string{good}, errors.ErrFileWrite, ws.Path("blocker/out.gds")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ws.Path(tt.output)
			_, err := merge.Merge(context.Background(), out, tt.inputs, merge.Options{})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, errors.GetErrorDetails(err)["path"])
			}
			assert.False(t, ws.Exists(tt.output), "no output after a failed merge")
			assert.False(t, ws.Exists(tt.output+merge.DefaultStagingSuffix), "staging file removed")
		})
	}
}

func TestMergeUnitTolerance(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1", testutil.Cell("a"))
	nearby, err := gds.Encode(testutil.BuildLibrary(t, "LIB2",
		gds.Units{UserUnit: 1e-3 * (1 + 1e-7), DBUnit: 1e-9}, testutil.Cell("b")))
	require.NoError(t, err)
	in2 := ws.WriteStream(t, "in2.gds", nearby)

	_, err = merge.Merge(context.Background(), ws.Path("strict.gds"), []string{in1, in2}, merge.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnitMismatch))

	result, err := merge.Merge(context.Background(), ws.Path("loose.gds"), []string{in1, in2},
		merge.Options{UnitTolerance: 1e-6})
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, result.Units.UserUnit, 1e-15)
	assert.InDelta(t, 1e-9, result.Units.DBUnit, 1e-21)
}

func TestLoad(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	path := ws.WriteLibrary(t, "in.gds", "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))

	lib, err := merge.Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, "LIB", lib.Name)
	assert.Equal(t, []string{"leaf", "top"}, lib.Names())
}

func TestMergeKeepsDollarSignsInPaths(t *testing.T) {
	t.Setenv("GDSMERGE_TEST_ONE", "")
	ws := testutil.NewWorkspace(t)
	ws.WriteLibrary(t, "cost.gds", "WRONG", testutil.Cell("decoy"))
	in := ws.WriteLibrary(t, "cost$1.gds", "RIGHT", testutil.Cell("real"))
	out := ws.Path("out$GDSMERGE_TEST_ONE.gds")

	result, err := merge.Merge(context.Background(), out, []string{in}, merge.Options{})
	require.NoError(t, err)
	assert.Equal(t, "RIGHT", result.Library)

	lib := decodeFile(t, out)
	assert.Equal(t, []string{"real"}, lib.Names())
	assert.False(t, ws.Exists("out.gds"))
}

func TestMergeBeforePublish(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	in1 := ws.WriteLibrary(t, "in1.gds", "LIB1", testutil.Cell("a"))
	in2 := ws.WriteLibrary(t, "in2.gds", "LIB2", testutil.Cell("a"))

	t.Run("sees the complete result", func(t *testing.T) {
		var seen merge.Result
		opts := merge.Options{BeforePublish: func(_ context.Context, r *merge.Result) error {
			seen = *r
			assert.False(t, ws.Exists("ok.gds"), "output must not exist yet")
			return nil
		}}
		result, err := merge.Merge(context.Background(), ws.Path("ok.gds"), []string{in1, in2}, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, seen.Structures)
		assert.Equal(t, result.Bytes, seen.Bytes)
		assert.Equal(t, result.Digest, seen.Digest)
		assert.NotZero(t, seen.Bytes)
		assert.True(t, ws.Exists("ok.gds"))
	})

	t.Run("error aborts without output", func(t *testing.T) {
		opts := merge.Options{BeforePublish: func(context.Context, *merge.Result) error {
			return errors.New(errors.ErrFileWrite, "report unwritable")
		}}
		_, err := merge.Merge(context.Background(), ws.Path("aborted.gds"), []string{in1, in2}, opts)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileWrite))
		assert.False(t, ws.Exists("aborted.gds"))
		assert.False(t, ws.Exists("aborted.gds"+merge.DefaultStagingSuffix))
	})
}
