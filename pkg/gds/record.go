package gds

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the fixed record header: a big-endian uint16
// total length followed by the record type and data type bytes.
const HeaderSize = 4

// MaxRecordLength is the largest length a record header can encode.
const MaxRecordLength = 0xFFFF

// MaxPayloadLength is the largest payload that fits behind a header.
const MaxPayloadLength = MaxRecordLength - HeaderSize

// RecordType identifies what a record means.
type RecordType uint8

// Record types of the GDSII stream format.
const (
	HEADER       RecordType = 0x00
	BGNLIB       RecordType = 0x01
	LIBNAME      RecordType = 0x02
	UNITS        RecordType = 0x03
	ENDLIB       RecordType = 0x04
	BGNSTR       RecordType = 0x05
	STRNAME      RecordType = 0x06
	ENDSTR       RecordType = 0x07
	BOUNDARY     RecordType = 0x08
	PATH         RecordType = 0x09
	SREF         RecordType = 0x0A
	AREF         RecordType = 0x0B
	TEXT         RecordType = 0x0C
	LAYER        RecordType = 0x0D
	DATATYPE     RecordType = 0x0E
	WIDTH        RecordType = 0x0F
	XY           RecordType = 0x10
	ENDEL        RecordType = 0x11
	SNAME        RecordType = 0x12
	COLROW       RecordType = 0x13
	TEXTNODE     RecordType = 0x14
	NODE         RecordType = 0x15
	TEXTTYPE     RecordType = 0x16
	PRESENTATION RecordType = 0x17
	SPACING      RecordType = 0x18
	STRING       RecordType = 0x19
	STRANS       RecordType = 0x1A
	MAG          RecordType = 0x1B
	ANGLE        RecordType = 0x1C
	UINTEGER     RecordType = 0x1D
	USTRING      RecordType = 0x1E
	REFLIBS      RecordType = 0x1F
	FONTS        RecordType = 0x20
	PATHTYPE     RecordType = 0x21
	GENERATIONS  RecordType = 0x22
	ATTRTABLE    RecordType = 0x23
	STYPTABLE    RecordType = 0x24
	STRTYPE      RecordType = 0x25
	ELFLAGS      RecordType = 0x26
	ELKEY        RecordType = 0x27
	LINKTYPE     RecordType = 0x28
	LINKKEYS     RecordType = 0x29
	NODETYPE     RecordType = 0x2A
	PROPATTR     RecordType = 0x2B
	PROPVALUE    RecordType = 0x2C
	BOX          RecordType = 0x2D
	BOXTYPE      RecordType = 0x2E
	PLEX         RecordType = 0x2F
	BGNEXTN      RecordType = 0x30
	ENDEXTN      RecordType = 0x31
	TAPENUM      RecordType = 0x32
	TAPECODE     RecordType = 0x33
	STRCLASS     RecordType = 0x34
	RESERVED     RecordType = 0x35
	FORMAT       RecordType = 0x36
	MASK         RecordType = 0x37
	ENDMASKS     RecordType = 0x38
	LIBDIRSIZE   RecordType = 0x39
	SRFNAME      RecordType = 0x3A
	LIBSECUR     RecordType = 0x3B
)

var recordTypeNames = map[RecordType]string{
	HEADER: "HEADER", BGNLIB: "BGNLIB", LIBNAME: "LIBNAME", UNITS: "UNITS",
	ENDLIB: "ENDLIB", BGNSTR: "BGNSTR", STRNAME: "STRNAME", ENDSTR: "ENDSTR",
	BOUNDARY: "BOUNDARY", PATH: "PATH", SREF: "SREF", AREF: "AREF",
	TEXT: "TEXT", LAYER: "LAYER", DATATYPE: "DATATYPE", WIDTH: "WIDTH",
	XY: "XY", ENDEL: "ENDEL", SNAME: "SNAME", COLROW: "COLROW",
	TEXTNODE: "TEXTNODE", NODE: "NODE", TEXTTYPE: "TEXTTYPE",
	PRESENTATION: "PRESENTATION", SPACING: "SPACING", STRING: "STRING",
	STRANS: "STRANS", MAG: "MAG", ANGLE: "ANGLE", UINTEGER: "UINTEGER",
	USTRING: "USTRING", REFLIBS: "REFLIBS", FONTS: "FONTS",
	PATHTYPE: "PATHTYPE", GENERATIONS: "GENERATIONS", ATTRTABLE: "ATTRTABLE",
	STYPTABLE: "STYPTABLE", STRTYPE: "STRTYPE", ELFLAGS: "ELFLAGS",
	ELKEY: "ELKEY", LINKTYPE: "LINKTYPE", LINKKEYS: "LINKKEYS",
	NODETYPE: "NODETYPE", PROPATTR: "PROPATTR", PROPVALUE: "PROPVALUE",
	BOX: "BOX", BOXTYPE: "BOXTYPE", PLEX: "PLEX", BGNEXTN: "BGNEXTN",
	ENDEXTN: "ENDEXTN", TAPENUM: "TAPENUM", TAPECODE: "TAPECODE",
	STRCLASS: "STRCLASS", RESERVED: "RESERVED", FORMAT: "FORMAT",
	MASK: "MASK", ENDMASKS: "ENDMASKS", LIBDIRSIZE: "LIBDIRSIZE",
	SRFNAME: "SRFNAME", LIBSECUR: "LIBSECUR",
}

func (t RecordType) String() string {
	if name, ok := recordTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RecordType(0x%02X)", uint8(t))
}

// Known reports whether t is a record type defined by the format.
func (t RecordType) Known() bool {
	_, ok := recordTypeNames[t]
	return ok
}

// IsElementStart reports whether t opens an element.
func (t RecordType) IsElementStart() bool {
	switch t {
	case BOUNDARY, PATH, SREF, AREF, TEXT, NODE, BOX:
		return true
	}
	return false
}

// DataType describes how a record payload is encoded.
type DataType uint8

// Data types of the GDSII stream format.
const (
	NoData   DataType = 0x00
	BitArray DataType = 0x01
	Int16    DataType = 0x02
	Int32    DataType = 0x03
	Real32   DataType = 0x04
	Real64   DataType = 0x05
	ASCII    DataType = 0x06
)

// RecordHeader is the fixed header in front of every record.
type RecordHeader struct {
	Length   uint16
	Type     RecordType
	DataType DataType
}

// Record is one length-prefixed unit of the stream.
//
// Length is the total length found in (or to be written to) the header.
// For records read from a stream it always equals HeaderSize+len(Payload).
type Record struct {
	RecordHeader
	Payload []byte
}

// NewRecord builds a record with a freshly computed length. It panics when
// payload is longer than MaxPayloadLength; callers holding external data
// check the length first.
func NewRecord(typ RecordType, dt DataType, payload []byte) Record {
	if len(payload) > MaxPayloadLength {
		panic(fmt.Sprintf("gds: %s payload of %d bytes exceeds %d", typ, len(payload), MaxPayloadLength))
	}
	return Record{
		RecordHeader: RecordHeader{
			Length:   uint16(HeaderSize + len(payload)),
			Type:     typ,
			DataType: dt,
		},
		Payload: payload,
	}
}

// StringFits reports whether s, once padded, fits in one record.
func StringFits(s string) bool {
	return len(s)+len(s)%2 <= MaxPayloadLength
}

// NewStringRecord builds an ASCII record holding s, NUL padded to an even
// payload length. Like NewRecord it panics when s does not fit.
func NewStringRecord(typ RecordType, s string) Record {
	payload := []byte(s)
	if len(payload)%2 != 0 {
		payload = append(payload, 0)
	}
	return NewRecord(typ, ASCII, payload)
}

// String returns the logical string of an ASCII record, without padding.
func (r Record) String() string {
	return string(bytes.TrimRight(r.Payload, "\x00"))
}

// Size is the number of bytes the record occupies in the stream.
func (r Record) Size() int {
	return HeaderSize + len(r.Payload)
}

// AppendTo appends the encoded record to buf.
func (r Record) AppendTo(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, r.Length)
	buf = append(buf, byte(r.Type), byte(r.DataType))
	return append(buf, r.Payload...)
}

// Bytes returns the encoded record.
func (r Record) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, r.Size()))
}
