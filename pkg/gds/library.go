package gds

import (
	"encoding/binary"
	"time"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

// DefaultVersion is the stream version written by NewLibrary.
const DefaultVersion = 600

// Units are the two scale factors of a library: the size of a database unit
// in user units and the size of a database unit in meters.
type Units struct {
	UserUnit float64
	DBUnit   float64
}

// Library is a decoded GDSII stream.
//
// Header holds every record from HEADER up to the last library-level record
// before the first structure, in stream order. Name and Units mirror the
// LIBNAME and UNITS records in Header; the writer re-encodes those records
// only when the fields no longer match them.
type Library struct {
	Header     []Record
	Name       string
	Units      Units
	Structures []*Structure
	End        Record
}

// Structure is one named cell.
type Structure struct {
	Name       string
	Begin      Record
	NameRecord Record
	// Extras are records such as STRCLASS between STRNAME and the first element.
	Extras   []Record
	Elements []Element
	End      Record
}

// Element is a tagged variant keyed by Kind, the record type that opened
// it. Geometry elements (BOUNDARY, PATH, TEXT, NODE, BOX) keep all of their
// records in Raw. SREF and AREF elements carry a Reference instead.
type Element struct {
	Kind RecordType
	Raw  []byte
	Ref  *Reference
}

// Reference is the body of an SREF or AREF element split around its SNAME
// record. Head starts with the SREF/AREF record itself; Tail ends with ENDEL.
type Reference struct {
	Target     string
	Head       []byte
	NameRecord Record
	Tail       []byte
}

// Timestamps are the two dates carried by BGNLIB and BGNSTR records.
type Timestamps struct {
	Modified time.Time
	Accessed time.Time
}

// NewLibrary returns an empty library with a fresh header.
func NewLibrary(name string, units Units, stamp time.Time) (*Library, error) {
	if !StringFits(name) {
		return nil, errors.Newf(errors.ErrRecordTooLong, "library name of %d bytes exceeds %d",
			len(name), MaxPayloadLength)
	}
	unitsRec, err := unitsRecord(units)
	if err != nil {
		return nil, err
	}
	version := make([]byte, 2)
	binary.BigEndian.PutUint16(version, DefaultVersion)
	return &Library{
		Header: []Record{
			NewRecord(HEADER, Int16, version),
			NewRecord(BGNLIB, Int16, encodeTimestamps(stamp)),
			NewStringRecord(LIBNAME, name),
			unitsRec,
		},
		Name:  name,
		Units: units,
		End:   NewRecord(ENDLIB, NoData, nil),
	}, nil
}

// NewStructure returns an empty structure named name.
func NewStructure(name string, stamp time.Time) *Structure {
	return &Structure{
		Name:       name,
		Begin:      NewRecord(BGNSTR, Int16, encodeTimestamps(stamp)),
		NameRecord: NewStringRecord(STRNAME, name),
		End:        NewRecord(ENDSTR, NoData, nil),
	}
}

// Version returns the stream version from the HEADER record.
func (l *Library) Version() int16 {
	for _, rec := range l.Header {
		if rec.Type == HEADER && len(rec.Payload) >= 2 {
			return int16(binary.BigEndian.Uint16(rec.Payload))
		}
	}
	return 0
}

// Timestamps returns the dates from the BGNLIB record.
func (l *Library) Timestamps() (Timestamps, error) {
	for _, rec := range l.Header {
		if rec.Type == BGNLIB {
			return DecodeTimestamps(rec.Payload)
		}
	}
	return Timestamps{}, errors.New(errors.ErrFormat, "library has no BGNLIB record")
}

// Structure returns the structure named name, or nil.
func (l *Library) Structure(name string) *Structure {
	for _, s := range l.Structures {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Names returns the structure names in definition order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Structures))
	for i, s := range l.Structures {
		names[i] = s.Name
	}
	return names
}

// Timestamps returns the dates from the BGNSTR record.
func (s *Structure) Timestamps() (Timestamps, error) {
	return DecodeTimestamps(s.Begin.Payload)
}

// References returns the target names of the structure's SREF and AREF
// elements, in element order.
func (s *Structure) References() []string {
	var targets []string
	for _, e := range s.Elements {
		if e.Ref != nil {
			targets = append(targets, e.Ref.Target)
		}
	}
	return targets
}

// IsReference reports whether the element instantiates another structure.
func (e Element) IsReference() bool {
	return e.Kind == SREF || e.Kind == AREF
}

// NewGeometry wraps already encoded element records. records must start with
// the element record and end with ENDEL.
func NewGeometry(kind RecordType, records ...Record) Element {
	var raw []byte
	for _, rec := range records {
		raw = rec.AppendTo(raw)
	}
	return Element{Kind: kind, Raw: raw}
}

// NewReference builds an SREF or AREF element pointing at target. body holds
// the records following SNAME, excluding ENDEL.
func NewReference(kind RecordType, target string, body ...Record) Element {
	ref := &Reference{
		Target:     target,
		Head:       NewRecord(kind, NoData, nil).Bytes(),
		NameRecord: NewStringRecord(SNAME, target),
	}
	for _, rec := range body {
		ref.Tail = rec.AppendTo(ref.Tail)
	}
	ref.Tail = NewRecord(ENDEL, NoData, nil).AppendTo(ref.Tail)
	return Element{Kind: kind, Ref: ref}
}

// DecodeTimestamps reads the twelve int16 values of a BGNLIB or BGNSTR
// payload. Two-digit years are taken relative to 1900.
func DecodeTimestamps(payload []byte) (Timestamps, error) {
	if len(payload) != 24 {
		return Timestamps{}, errors.Newf(errors.ErrFormat, "timestamp payload is %d bytes, want 24", len(payload))
	}
	var v [12]int
	for i := range v {
		v[i] = int(int16(binary.BigEndian.Uint16(payload[2*i:])))
	}
	stamp := func(f []int) time.Time {
		year := f[0]
		if year < 1000 {
			year += 1900
		}
		return time.Date(year, time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC)
	}
	return Timestamps{Modified: stamp(v[:6]), Accessed: stamp(v[6:])}, nil
}

func encodeTimestamps(t time.Time) []byte {
	t = t.UTC()
	fields := []int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
	out := make([]byte, 0, 24)
	for i := 0; i < 2; i++ {
		for _, f := range fields {
			out = binary.BigEndian.AppendUint16(out, uint16(f))
		}
	}
	return out
}

func decodeUnits(rec Record) (Units, error) {
	if len(rec.Payload) != 16 {
		return Units{}, errors.Newf(errors.ErrFormat, "UNITS payload is %d bytes, want 16", len(rec.Payload))
	}
	return Units{
		UserUnit: DecodeReal8(rec.Payload[:8]),
		DBUnit:   DecodeReal8(rec.Payload[8:]),
	}, nil
}

func unitsRecord(u Units) (Record, error) {
	user, err := EncodeReal8(u.UserUnit)
	if err != nil {
		return Record{}, err
	}
	db, err := EncodeReal8(u.DBUnit)
	if err != nil {
		return Record{}, err
	}
	return NewRecord(UNITS, Real64, append(user, db...)), nil
}
