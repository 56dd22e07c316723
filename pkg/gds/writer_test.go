package gds_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) *gds.Library {
	t.Helper()
	lib, err := gds.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return lib
}

func TestRoundTripIsByteExact(t *testing.T) {
	data := testutil.StreamBytes(t, "LIB",
		testutil.Cell("leaf"),
		testutil.CellSpec{Name: "row", ArrayRefs: []string{"leaf"}, Boxes: 2},
		testutil.Cell("top", "row", "leaf"),
	)

	out, err := gds.Encode(decode(t, data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestRoundTripKeepsOpaqueLibraryRecords(t *testing.T) {
	header := libraryHeader(t)
	records := concat(
		header[:2],
		[]gds.Record{rec(gds.LIBDIRSIZE, gds.Int16, []byte{0, 3})},
		header[2:3],
		[]gds.Record{str(gds.REFLIBS, "other")},
		header[3:],
		structure("a", boundary()...),
		[]gds.Record{empty(gds.ENDLIB)},
	)
	data := encode(records...)

	out, err := gds.Encode(decode(t, data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestUnchangedOddLengthNamesAreKept(t *testing.T) {
	records := concat(libraryHeader(t),
		[]gds.Record{
			rec(gds.BGNSTR, gds.Int16, make([]byte, 24)),
			rec(gds.STRNAME, gds.ASCII, []byte("abc")),
			empty(gds.ENDSTR),
			rec(gds.BGNSTR, gds.Int16, make([]byte, 24)),
			str(gds.STRNAME, "top"),
			empty(gds.SREF),
			rec(gds.SNAME, gds.ASCII, []byte("abc")),
			rec(gds.XY, gds.Int32, make([]byte, 8)),
			empty(gds.ENDEL),
			empty(gds.ENDSTR),
		},
		[]gds.Record{empty(gds.ENDLIB)},
	)
	data := encode(records...)

	out, err := gds.Encode(decode(t, data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestRenamedNamesArePadded(t *testing.T) {
	data := testutil.StreamBytes(t, "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))
	lib := decode(t, data)

	lib.Structures[0].Name = "leaf_2"
	lib.Structures[1].Elements[1].Ref.Target = "leaf_2"
	lib.Name = "MERGED"

	out, err := gds.Encode(lib)
	require.NoError(t, err)
	assert.Equal(t, len(data)+6, len(out), "STRNAME, SNAME and LIBNAME each grow by two bytes")

	records, err := gds.ReadRecords(bytes.NewReader(out))
	require.NoError(t, err)
	for _, r := range records {
		if r.Type == gds.STRNAME || r.Type == gds.SNAME || r.Type == gds.LIBNAME {
			assert.Zero(t, len(r.Payload)%2, "%s payload must be even", r.Type)
			assert.Equal(t, int(r.Length), r.Size())
		}
	}

	again := decode(t, out)
	assert.Equal(t, "MERGED", again.Name)
	assert.Equal(t, []string{"leaf_2", "top"}, again.Names())
	assert.Equal(t, []string{"leaf_2"}, again.Structure("top").References())
	assert.Equal(t, lib.Structures[1].Elements[1].Ref.Tail, again.Structures[1].Elements[1].Ref.Tail)
}

func TestWriterRejectsOversizedNames(t *testing.T) {
	lib := decode(t, testutil.StreamBytes(t, "LIB", testutil.Cell("leaf")))
	lib.Structures[0].Name = strings.Repeat("x", gds.MaxRecordLength)

	_, err := gds.Encode(lib)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRecordTooLong), "got %v", err)
}

func TestWriterReencodesChangedUnits(t *testing.T) {
	lib := decode(t, testutil.StreamBytes(t, "LIB", testutil.Cell("leaf")))
	lib.Units = gds.Units{UserUnit: 1e-3, DBUnit: 1e-6}

	out, err := gds.Encode(lib)
	require.NoError(t, err)
	again := decode(t, out)
	assert.InEpsilon(t, 1e-6, again.Units.DBUnit, 1e-12)
}

func TestNewLibraryEncodes(t *testing.T) {
	lib, err := gds.NewLibrary("FRESH", testutil.NanometerUnits, testutil.Stamp)
	require.NoError(t, err)
	s := gds.NewStructure("cell", testutil.Stamp)
	s.Elements = append(s.Elements, testutil.Boundary(2, 50))
	lib.Structures = append(lib.Structures, s)

	out, err := gds.Encode(lib)
	require.NoError(t, err)

	again := decode(t, out)
	assert.Equal(t, "FRESH", again.Name)
	assert.Equal(t, []string{"cell"}, again.Names())
	stamps, err := again.Timestamps()
	require.NoError(t, err)
	assert.Equal(t, testutil.Stamp, stamps.Accessed)
}
