package rewrite_test

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/naming"
	"github.com/arthur-debert/gdsmerge/pkg/rewrite"
	"github.com/arthur-debert/gdsmerge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructure(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits,
		testutil.Cell("leaf"),
		testutil.CellSpec{Name: "top", Refs: []string{"leaf"}, ArrayRefs: []string{"leaf"}, Boxes: 1},
	)
	top := lib.Structure("top")
	require.NotNil(t, top)
	before := top.Elements[0].Raw

	err := rewrite.Structure(top, naming.RenameMap{"leaf": "leaf_2", "top": "top"})
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf_2", "leaf_2"}, top.References())
	assert.Equal(t, before, top.Elements[0].Raw, "geometry is untouched")
	assert.Equal(t, "top", top.Name, "structure name is left to Library")
}

func TestStructurePreservesOpaqueSubrecords(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits,
		testutil.Cell("leaf"),
		testutil.Cell("top", "leaf"),
	)
	ref := lib.Structure("top").Elements[1].Ref
	head := append([]byte(nil), ref.Head...)
	tail := append([]byte(nil), ref.Tail...)

	require.NoError(t, rewrite.Structure(lib.Structure("top"), naming.RenameMap{"leaf": "renamed"}))

	assert.Equal(t, "renamed", ref.Target)
	assert.Equal(t, head, ref.Head)
	assert.Equal(t, tail, ref.Tail)
}

func TestStructureDanglingReference(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits,
		testutil.Cell("top", "ghost"),
	)

	err := rewrite.Structure(lib.Structure("top"), naming.RenameMap{"top": "top"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDanglingReference))

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "top", details["structure"])
	assert.Equal(t, "ghost", details["target"])
	assert.Equal(t, 1, details["element"])
}

func TestLibrary(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits,
		testutil.Cell("cell_a"),
		testutil.Cell("cell_a_2", "cell_a"),
		testutil.Cell("top", "cell_a_2", "cell_a"),
	)
	m := naming.RenameMap{"cell_a": "cell_a_2", "cell_a_2": "cell_a_2_2", "top": "top"}

	require.NoError(t, rewrite.Library(lib, m))

	assert.Equal(t, []string{"cell_a_2", "cell_a_2_2", "top"}, lib.Names())
	assert.Equal(t, []string{"cell_a_2"}, lib.Structure("cell_a_2_2").References())
	assert.Equal(t, []string{"cell_a_2_2", "cell_a_2"}, lib.Structure("top").References())
}

func TestLibraryReencodesRenamedNames(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits,
		testutil.Cell("leaf"),
		testutil.Cell("top", "leaf"),
	)
	require.NoError(t, rewrite.Library(lib, naming.RenameMap{"leaf": "leaf_2", "top": "top"}))

	data, err := gds.Encode(lib)
	require.NoError(t, err)
	decoded, err := gds.Build(mustRecords(t, data))
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf_2", "top"}, decoded.Names())
	assert.Equal(t, []string{"leaf_2"}, decoded.Structure("top").References())
}

func TestLibraryMissingMapEntry(t *testing.T) {
	lib := testutil.BuildLibrary(t, "lib", testutil.NanometerUnits, testutil.Cell("top"))

	err := rewrite.Library(lib, naming.RenameMap{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

func mustRecords(t *testing.T, data []byte) []gds.Record {
	t.Helper()
	recs, err := gds.ReadRecords(bytes.NewReader(data))
	require.NoError(t, err)
	return recs
}

