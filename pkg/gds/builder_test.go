package gds_test

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLibrary(t *testing.T) {
	data := testutil.StreamBytes(t, "MYLIB",
		testutil.Cell("leaf"),
		testutil.CellSpec{Name: "row", ArrayRefs: []string{"leaf"}},
		testutil.Cell("top", "row", "leaf"),
	)

	lib, err := gds.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "MYLIB", lib.Name)
	assert.Equal(t, int16(gds.DefaultVersion), lib.Version())
	assert.InEpsilon(t, 1e-3, lib.Units.UserUnit, 1e-12)
	assert.InEpsilon(t, 1e-9, lib.Units.DBUnit, 1e-12)
	assert.Equal(t, []string{"leaf", "row", "top"}, lib.Names())

	row := lib.Structure("row")
	require.NotNil(t, row)
	require.Len(t, row.Elements, 1)
	assert.Equal(t, gds.AREF, row.Elements[0].Kind)
	assert.Equal(t, "leaf", row.Elements[0].Ref.Target)

	top := lib.Structure("top")
	require.NotNil(t, top)
	assert.Equal(t, []string{"row", "leaf"}, top.References())
	assert.Equal(t, gds.BOUNDARY, top.Elements[0].Kind)
	assert.Nil(t, top.Elements[0].Ref)
	assert.NotEmpty(t, top.Elements[0].Raw)

	stamps, err := top.Timestamps()
	require.NoError(t, err)
	assert.Equal(t, testutil.Stamp, stamps.Modified)
}

func TestBuildMatchesDecode(t *testing.T) {
	data := testutil.StreamBytes(t, "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))

	records, err := gds.ReadRecords(bytes.NewReader(data))
	require.NoError(t, err)
	built, err := gds.Build(records)
	require.NoError(t, err)
	decoded, err := gds.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, decoded, built)
}

func TestReferenceKeepsSubrecordsOpaque(t *testing.T) {
	records := concat(libraryHeader(t),
		structure("leaf"),
		structure("top",
			empty(gds.SREF),
			rec(gds.ELFLAGS, gds.BitArray, []byte{0, 1}),
			str(gds.SNAME, "leaf"),
			rec(gds.STRANS, gds.BitArray, []byte{0x80, 0}),
			rec(gds.XY, gds.Int32, make([]byte, 8)),
			empty(gds.ENDEL),
		),
		[]gds.Record{empty(gds.ENDLIB)},
	)

	lib, err := gds.Build(records)
	require.NoError(t, err)

	ref := lib.Structure("top").Elements[0].Ref
	require.NotNil(t, ref)
	assert.Equal(t, "leaf", ref.Target)
	assert.Equal(t, encode(empty(gds.SREF), rec(gds.ELFLAGS, gds.BitArray, []byte{0, 1})), ref.Head)
	assert.Equal(t, encode(
		rec(gds.STRANS, gds.BitArray, []byte{0x80, 0}),
		rec(gds.XY, gds.Int32, make([]byte, 8)),
		empty(gds.ENDEL),
	), ref.Tail)
}

func TestBuildKeepsStructureExtras(t *testing.T) {
	records := concat(libraryHeader(t),
		structure("a", rec(gds.STRCLASS, gds.BitArray, []byte{0, 0})),
		[]gds.Record{empty(gds.ENDLIB)},
	)

	lib, err := gds.Build(records)
	require.NoError(t, err)
	require.Len(t, lib.Structures[0].Extras, 1)
	assert.Equal(t, gds.STRCLASS, lib.Structures[0].Extras[0].Type)
}

func TestBuildRejectsIllegalNesting(t *testing.T) {
	header := libraryHeader(t)
	endlib := []gds.Record{empty(gds.ENDLIB)}

	tests := []struct {
		name      string
		records   []gds.Record
		structure string
	}{
		{
			name:    "no_records",
			records: nil,
		},
		{
			name:    "missing_endlib",
			records: concat(header, structure("a")),
		},
		{
			name:    "missing_units",
			records: concat(header[:3], structure("a"), endlib),
		},
		{
			name:    "missing_libname",
			records: concat(header[:2], header[3:], endlib),
		},
		{
			name: "bgnstr_without_strname",
			records: concat(header, []gds.Record{
				rec(gds.BGNSTR, gds.Int16, make([]byte, 24)),
				empty(gds.BOUNDARY),
			}),
		},
		{
			name:      "duplicate_structure",
			records:   concat(header, structure("a"), structure("a"), endlib),
			structure: "a",
		},
		{
			name:      "endel_without_start",
			records:   concat(header, structure("a", empty(gds.ENDEL)), endlib),
			structure: "a",
		},
		{
			name:      "element_inside_element",
			records:   concat(header, structure("a", empty(gds.BOUNDARY), empty(gds.PATH)), endlib),
			structure: "a",
		},
		{
			name:      "endstr_inside_element",
			records:   concat(header, structure("a", empty(gds.BOUNDARY)), endlib),
			structure: "a",
		},
		{
			name:      "sref_without_sname",
			records:   concat(header, structure("a", empty(gds.SREF), empty(gds.ENDEL)), endlib),
			structure: "a",
		},
		{
			name: "sname_in_boundary",
			records: concat(header, structure("a",
				empty(gds.BOUNDARY), str(gds.SNAME, "b"), empty(gds.ENDEL)), endlib),
			structure: "a",
		},
		{
			name: "repeated_sname",
			records: concat(header, structure("b"), structure("a",
				empty(gds.SREF), str(gds.SNAME, "b"), str(gds.SNAME, "b"), empty(gds.ENDEL)), endlib),
			structure: "a",
		},
		{
			name:    "empty_structure_name",
			records: concat(header, structure(""), endlib),
		},
		{
			name:    "library_record_after_structure",
			records: concat(header, structure("a"), []gds.Record{str(gds.LIBNAME, "X")}, endlib),
		},
		{
			name:    "record_after_endlib",
			records: concat(header, endlib, structure("a")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gds.Build(tt.records)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrFormat), "got %v", err)
			if tt.structure != "" {
				assert.Equal(t, tt.structure, errors.GetErrorDetails(err)["structure"])
			}
		})
	}
}

func TestDecodeReportsStructureOfTruncation(t *testing.T) {
	data := testutil.StreamBytes(t, "LIB", testutil.Cell("leaf"), testutil.Cell("top", "leaf"))

	_, err := gds.Decode(bytes.NewReader(data[:len(data)-12]))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
	assert.Equal(t, "top", errors.GetErrorDetails(err)["structure"])
}
