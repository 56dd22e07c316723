package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/stretchr/testify/require"
)

// Stamp is the timestamp written into every fixture library and structure,
// so fixtures are byte-for-byte reproducible.
var Stamp = time.Date(2024, time.March, 14, 9, 26, 53, 0, time.UTC)

// NanometerUnits are the units most fixtures use: 1nm database unit, 1µm user unit.
var NanometerUnits = gds.Units{UserUnit: 1e-3, DBUnit: 1e-9}

// CellSpec describes a fixture structure.
type CellSpec struct {
	Name      string
	Refs      []string // SREF targets
	ArrayRefs []string // AREF targets
	Boxes     int      // number of BOUNDARY elements
}

// Cell returns a CellSpec with one boundary and an SREF to each of refs.
func Cell(name string, refs ...string) CellSpec {
	return CellSpec{Name: name, Refs: refs, Boxes: 1}
}

// BuildLibrary assembles an in-memory library from cell specs.
func BuildLibrary(t *testing.T, name string, units gds.Units, cells ...CellSpec) *gds.Library {
	t.Helper()

	lib, err := gds.NewLibrary(name, units, Stamp)
	require.NoError(t, err)

	for _, c := range cells {
		s := gds.NewStructure(c.Name, Stamp)
		for i := 0; i < c.Boxes; i++ {
			s.Elements = append(s.Elements, Boundary(1, int32(100*(i+1))))
		}
		for i, target := range c.Refs {
			s.Elements = append(s.Elements, gds.NewReference(gds.SREF, target,
				gds.NewRecord(gds.STRANS, gds.BitArray, []byte{0x80, 0x00}),
				xy(int32(10*i), int32(20*i)),
			))
		}
		for _, target := range c.ArrayRefs {
			s.Elements = append(s.Elements, gds.NewReference(gds.AREF, target,
				gds.NewRecord(gds.COLROW, gds.Int16, []byte{0x00, 0x02, 0x00, 0x03}),
				xy(0, 0, 200, 0, 0, 300),
			))
		}
		lib.Structures = append(lib.Structures, s)
	}
	return lib
}

// StreamBytes encodes a fixture library built from cell specs.
func StreamBytes(t *testing.T, name string, cells ...CellSpec) []byte {
	t.Helper()

	data, err := gds.Encode(BuildLibrary(t, name, NanometerUnits, cells...))
	require.NoError(t, err)
	return data
}

// Boundary returns a square BOUNDARY element on layer with the given side.
func Boundary(layer int16, side int32) gds.Element {
	return gds.NewGeometry(gds.BOUNDARY,
		gds.NewRecord(gds.BOUNDARY, gds.NoData, nil),
		gds.NewRecord(gds.LAYER, gds.Int16, int16Payload(layer)),
		gds.NewRecord(gds.DATATYPE, gds.Int16, int16Payload(0)),
		xy(0, 0, side, 0, side, side, 0, side, 0, 0),
		gds.NewRecord(gds.ENDEL, gds.NoData, nil),
	)
}

func xy(coords ...int32) gds.Record {
	payload := make([]byte, 0, 4*len(coords))
	for _, c := range coords {
		payload = binary.BigEndian.AppendUint32(payload, uint32(c))
	}
	return gds.NewRecord(gds.XY, gds.Int32, payload)
}

func int16Payload(v int16) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(v))
}

// Workspace is a scratch directory holding fixture streams.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a workspace in a test temp dir.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{Dir: t.TempDir()}
}

// Path returns the absolute path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteStream writes data to name and returns its path.
func (w *Workspace) WriteStream(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := w.Path(name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// WriteLibrary encodes a fixture library to name and returns its path.
func (w *Workspace) WriteLibrary(t *testing.T, name, libName string, cells ...CellSpec) string {
	t.Helper()
	return w.WriteStream(t, name, StreamBytes(t, libName, cells...))
}

// Exists reports whether name exists in the workspace.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.Path(name))
	return err == nil
}
