package gds_test

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/stretchr/testify/require"
)

func rec(typ gds.RecordType, dt gds.DataType, payload []byte) gds.Record {
	return gds.NewRecord(typ, dt, payload)
}

func str(typ gds.RecordType, s string) gds.Record {
	return gds.NewStringRecord(typ, s)
}

func empty(typ gds.RecordType) gds.Record {
	return gds.NewRecord(typ, gds.NoData, nil)
}

// libraryHeader returns HEADER, BGNLIB, LIBNAME and UNITS records.
func libraryHeader(t *testing.T) []gds.Record {
	t.Helper()

	user, err := gds.EncodeReal8(1e-3)
	require.NoError(t, err)
	db, err := gds.EncodeReal8(1e-9)
	require.NoError(t, err)
	return []gds.Record{
		rec(gds.HEADER, gds.Int16, []byte{0x02, 0x58}),
		rec(gds.BGNLIB, gds.Int16, make([]byte, 24)),
		str(gds.LIBNAME, "LIB"),
		rec(gds.UNITS, gds.Real64, append(user, db...)),
	}
}

func structure(name string, body ...gds.Record) []gds.Record {
	out := []gds.Record{rec(gds.BGNSTR, gds.Int16, make([]byte, 24)), str(gds.STRNAME, name)}
	out = append(out, body...)
	return append(out, empty(gds.ENDSTR))
}

func sref(target string) []gds.Record {
	return []gds.Record{
		empty(gds.SREF),
		str(gds.SNAME, target),
		rec(gds.XY, gds.Int32, make([]byte, 8)),
		empty(gds.ENDEL),
	}
}

func boundary() []gds.Record {
	return []gds.Record{
		empty(gds.BOUNDARY),
		rec(gds.LAYER, gds.Int16, []byte{0, 1}),
		rec(gds.DATATYPE, gds.Int16, []byte{0, 0}),
		rec(gds.XY, gds.Int32, make([]byte, 40)),
		empty(gds.ENDEL),
	}
}

func concat(groups ...[]gds.Record) []gds.Record {
	var out []gds.Record
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func encode(records ...gds.Record) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		buf.Write(r.Bytes())
	}
	return buf.Bytes()
}
