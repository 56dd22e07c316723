package gds

import (
	"bufio"
	"bytes"
	"io"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

// Writer encodes a Library as a GDSII stream.
type Writer struct {
	w   *bufio.Writer
	buf []byte
	n   int64
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

// Written is the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

// WriteLibrary writes the whole library and flushes the underlying writer.
func (w *Writer) WriteLibrary(lib *Library) error {
	for _, rec := range lib.Header {
		switch rec.Type {
		case LIBNAME:
			if err := w.writeName(rec, LIBNAME, lib.Name); err != nil {
				return err
			}
			continue
		case UNITS:
			if current, err := decodeUnits(rec); err != nil || current != lib.Units {
				if rec, err = unitsRecord(lib.Units); err != nil {
					return err
				}
			}
		}
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	for _, s := range lib.Structures {
		if err := w.WriteStructure(s); err != nil {
			return errors.Contextf(err, "writing structure %q", s.Name).WithDetail("structure", s.Name)
		}
	}
	if err := w.WriteRecord(orDefault(lib.End, ENDLIB)); err != nil {
		return err
	}
	return w.Flush()
}

// WriteStructure writes one structure with its elements.
func (w *Writer) WriteStructure(s *Structure) error {
	if err := w.WriteRecord(s.Begin); err != nil {
		return err
	}
	if err := w.writeName(s.NameRecord, STRNAME, s.Name); err != nil {
		return err
	}
	for _, rec := range s.Extras {
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	for i, e := range s.Elements {
		if err := w.WriteElement(e); err != nil {
			return errors.Contextf(err, "element %d", i).WithDetail("element", i)
		}
	}
	return w.WriteRecord(orDefault(s.End, ENDSTR))
}

// WriteElement writes an element. Geometry is copied as is; a reference is
// written as its head, a name record for its current target and its tail.
func (w *Writer) WriteElement(e Element) error {
	if !e.IsReference() {
		return w.writeRaw(e.Raw)
	}
	if e.Ref == nil {
		return errors.Newf(errors.ErrInternal, "%s element has no reference body", e.Kind)
	}
	if err := w.writeRaw(e.Ref.Head); err != nil {
		return err
	}
	if err := w.writeName(e.Ref.NameRecord, SNAME, e.Ref.Target); err != nil {
		return err
	}
	return w.writeRaw(e.Ref.Tail)
}

// WriteRecord writes a record with the length stored in its header.
func (w *Writer) WriteRecord(rec Record) error {
	w.buf = rec.AppendTo(w.buf[:0])
	return w.writeRaw(w.buf)
}

// writeName writes orig unchanged when it still spells name, and a freshly
// padded record with a recomputed length otherwise.
func (w *Writer) writeName(orig Record, typ RecordType, name string) error {
	if orig.Type == typ && orig.DataType == ASCII && len(orig.Payload) > 0 && orig.String() == name {
		return w.WriteRecord(orig)
	}
	if !StringFits(name) {
		return errors.Newf(errors.ErrRecordTooLong, "%s %q needs %d bytes, the limit is %d",
			typ, name, HeaderSize+len(name)+len(name)%2, MaxRecordLength)
	}
	return w.WriteRecord(NewStringRecord(typ, name))
}

func (w *Writer) writeRaw(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write stream")
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to flush stream")
	}
	return nil
}

// Encode serializes lib into memory.
func Encode(lib *Library) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteLibrary(lib); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orDefault substitutes an empty end marker for a zero-valued record.
func orDefault(rec Record, typ RecordType) Record {
	if rec.Length == 0 {
		return NewRecord(typ, NoData, nil)
	}
	return rec
}
