package gds

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

// nesting is the coarse position of the reader inside the stream. It only
// tracks what is needed to reject records that can never appear where they
// are; Build does the fine-grained element checks.
type nesting int

const (
	awaitingHeader nesting = iota
	awaitingLibrary
	inLibrary
	inStructure
	libraryClosed
)

// libraryRecords may appear between BGNLIB and the first BGNSTR.
var libraryRecords = map[RecordType]bool{
	LIBNAME: true, UNITS: true, REFLIBS: true, FONTS: true, ATTRTABLE: true,
	GENERATIONS: true, FORMAT: true, MASK: true, ENDMASKS: true,
	LIBDIRSIZE: true, SRFNAME: true, LIBSECUR: true, STYPTABLE: true,
	STRTYPE: true, TAPENUM: true, TAPECODE: true,
}

// Reader decodes records from a byte stream.
type Reader struct {
	r      *bufio.Reader
	offset int64
	state  nesting
	done   bool
}

// NewReader returns a Reader that decodes records from r.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &Reader{r: br}
}

// Offset is the byte offset of the next record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next returns the next record. It returns io.EOF once ENDLIB has been read
// and any trailing padding has been consumed.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	if r.state == libraryClosed {
		r.done = true
		if err := r.drainPadding(); err != nil {
			return Record{}, err
		}
		return Record{}, io.EOF
	}

	start := r.offset
	var hdr RecordHeader
	if err := binary.Read(r.r, binary.BigEndian, &hdr); err != nil {
		switch err {
		case io.EOF:
			if start == 0 {
				return Record{}, formatError(start, "empty stream")
			}
			return Record{}, formatError(start, "stream ended before ENDLIB")
		case io.ErrUnexpectedEOF:
			return Record{}, formatError(start, "stream ended inside a record header")
		default:
			return Record{}, errors.Wrap(err, errors.ErrFileAccess, "failed to read record header").
				WithDetail("offset", start)
		}
	}
	if hdr.Length < HeaderSize {
		return Record{}, formatError(start, "record length %d is shorter than its header", hdr.Length).
			WithDetail("record", hdr.Type.String())
	}
	if hdr.Length%2 != 0 && hdr.DataType != ASCII {
		return Record{}, formatError(start, "%s record has odd length %d", hdr.Type, hdr.Length).
			WithDetail("record", hdr.Type.String())
	}

	rec := Record{RecordHeader: hdr, Payload: make([]byte, int(hdr.Length)-HeaderSize)}
	if _, err := io.ReadFull(r.r, rec.Payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, formatError(start, "stream ended inside %s record: want %d payload bytes",
				hdr.Type, len(rec.Payload)).WithDetail("record", hdr.Type.String())
		}
		return Record{}, errors.Wrap(err, errors.ErrFileAccess, "failed to read record payload").
			WithDetail("offset", start)
	}

	if err := r.advance(hdr.Type, start); err != nil {
		return Record{}, err
	}
	r.offset += int64(hdr.Length)
	return rec, nil
}

// advance moves the coarse nesting state forward, rejecting records that are
// illegal in the current state.
func (r *Reader) advance(t RecordType, at int64) error {
	switch r.state {
	case awaitingHeader:
		if t != HEADER {
			return formatError(at, "stream starts with %s, want HEADER", t).WithDetail("record", t.String())
		}
		r.state = awaitingLibrary
	case awaitingLibrary:
		if t != BGNLIB {
			return formatError(at, "%s before library header BGNLIB", t).WithDetail("record", t.String())
		}
		r.state = inLibrary
	case inLibrary:
		switch {
		case t == BGNSTR:
			r.state = inStructure
		case t == ENDLIB:
			r.state = libraryClosed
		case libraryRecords[t]:
		case t == HEADER || t == BGNLIB:
			return formatError(at, "repeated library header %s", t).WithDetail("record", t.String())
		case !t.Known():
			return formatError(at, "unknown record type %s at library level", t).WithDetail("record", t.String())
		default:
			return formatError(at, "%s record outside any structure", t).WithDetail("record", t.String())
		}
	case inStructure:
		switch t {
		case ENDSTR:
			r.state = inLibrary
		case BGNSTR:
			return formatError(at, "BGNSTR inside an open structure").WithDetail("record", t.String())
		case ENDLIB:
			return formatError(at, "ENDLIB inside an open structure").WithDetail("record", t.String())
		case HEADER, BGNLIB:
			return formatError(at, "library header %s inside a structure", t).WithDetail("record", t.String())
		}
	}
	return nil
}

// drainPadding consumes whatever follows ENDLIB. Writers commonly pad the
// stream with NUL bytes to a tape block boundary; anything else is an error.
func (r *Reader) drainPadding() error {
	for {
		b, err := r.r.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to read trailing bytes").
				WithDetail("offset", r.offset)
		}
		if b != 0 {
			return formatError(r.offset, "data after ENDLIB")
		}
		r.offset++
	}
}

// ReadRecords decodes every record of a stream.
func ReadRecords(src io.Reader) ([]Record, error) {
	r := NewReader(src)
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

func formatError(offset int64, format string, args ...interface{}) *errors.MergeError {
	return errors.Newf(errors.ErrFormat, format, args...).WithDetail("offset", offset)
}
