package gds

import (
	"io"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/logging"
	"github.com/rs/zerolog"
)

type buildState int

const (
	awaitingLibraryHeader buildState = iota
	awaitingBgnLib
	buildingLibrary
	awaitingStrName
	buildingStructure
	buildingElement
	buildClosed
)

// builder assembles a Library from records fed in stream order.
type builder struct {
	logger  zerolog.Logger
	state   buildState
	lib     *Library
	names   map[string]bool
	hasName bool
	hasUnit bool

	cur  *Structure
	elem *Element
	// body collects the raw records of the open element. For references it
	// holds Head until SNAME is seen, then Tail.
	body []byte
}

func newBuilder() *builder {
	return &builder{
		logger: logging.GetLogger("gds.builder"),
		lib:    &Library{},
		names:  make(map[string]bool),
	}
}

// Build assembles a Library from a complete record sequence.
func Build(records []Record) (*Library, error) {
	b := newBuilder()
	var offset int64
	for _, rec := range records {
		if err := b.add(rec, offset); err != nil {
			return nil, err
		}
		offset += int64(rec.Size())
	}
	return b.finish(offset)
}

// Decode reads a stream and assembles its Library, pulling one record at a
// time from a Reader.
func Decode(src io.Reader) (*Library, error) {
	r := NewReader(src)
	b := newBuilder()
	for {
		at := r.Offset()
		rec, err := r.Next()
		if err == io.EOF {
			return b.finish(r.Offset())
		}
		if err != nil {
			return nil, b.annotate(err)
		}
		if err := b.add(rec, at); err != nil {
			return nil, err
		}
	}
}

func (b *builder) finish(offset int64) (*Library, error) {
	if b.state != buildClosed {
		return nil, b.fail(offset, "record sequence ended before ENDLIB")
	}
	b.logger.Debug().
		Str("library", b.lib.Name).
		Int("structures", len(b.lib.Structures)).
		Msg("Library decoded")
	return b.lib, nil
}

func (b *builder) add(rec Record, at int64) error {
	t := rec.Type
	switch b.state {
	case awaitingLibraryHeader:
		if t != HEADER {
			return b.fail(at, "expected HEADER, got %s", t)
		}
		b.lib.Header = append(b.lib.Header, rec)
		b.state = awaitingBgnLib

	case awaitingBgnLib:
		if t != BGNLIB {
			return b.fail(at, "expected BGNLIB, got %s", t)
		}
		b.lib.Header = append(b.lib.Header, rec)
		b.state = buildingLibrary

	case buildingLibrary:
		return b.addLibraryRecord(rec, at)

	case awaitingStrName:
		if t != STRNAME {
			return b.fail(at, "BGNSTR followed by %s, want STRNAME", t)
		}
		name, err := nameOf(rec)
		if err != nil {
			return b.wrap(err, at)
		}
		if b.names[name] {
			return errors.Newf(errors.ErrFormat, "structure %q defined multiple times", name).
				WithDetail("offset", at).
				WithDetail("structure", name)
		}
		b.names[name] = true
		b.cur.Name = name
		b.cur.NameRecord = rec
		b.state = buildingStructure

	case buildingStructure:
		switch {
		case t.IsElementStart():
			b.elem = &Element{Kind: t}
			b.body = rec.AppendTo(nil)
			b.state = buildingElement
		case t == ENDSTR:
			b.cur.End = rec
			b.lib.Structures = append(b.lib.Structures, b.cur)
			b.logger.Trace().
				Str("structure", b.cur.Name).
				Int("elements", len(b.cur.Elements)).
				Msg("Structure decoded")
			b.cur = nil
			b.state = buildingLibrary
		case t == STRCLASS && len(b.cur.Elements) == 0:
			b.cur.Extras = append(b.cur.Extras, rec)
		default:
			return b.fail(at, "%s record outside any element", t)
		}

	case buildingElement:
		return b.addElementRecord(rec, at)

	case buildClosed:
		return b.fail(at, "%s record after ENDLIB", t)
	}
	return nil
}

func (b *builder) addLibraryRecord(rec Record, at int64) error {
	t := rec.Type
	switch {
	case t == BGNSTR:
		if err := b.requireHeader(at); err != nil {
			return err
		}
		b.cur = &Structure{Begin: rec}
		b.state = awaitingStrName
	case t == ENDLIB:
		if err := b.requireHeader(at); err != nil {
			return err
		}
		b.lib.End = rec
		b.state = buildClosed
	case libraryRecords[t]:
		if len(b.lib.Structures) > 0 {
			return b.fail(at, "library record %s after the first structure", t)
		}
		switch t {
		case LIBNAME:
			if b.hasName {
				return b.fail(at, "repeated LIBNAME")
			}
			if rec.DataType != ASCII {
				return b.fail(at, "LIBNAME has data type %d, want ASCII", rec.DataType)
			}
			b.lib.Name = rec.String()
			b.hasName = true
		case UNITS:
			if b.hasUnit {
				return b.fail(at, "repeated UNITS")
			}
			units, err := decodeUnits(rec)
			if err != nil {
				return b.wrap(err, at)
			}
			b.lib.Units = units
			b.hasUnit = true
		}
		b.lib.Header = append(b.lib.Header, rec)
	default:
		return b.fail(at, "unexpected %s record at library level", t)
	}
	return nil
}

func (b *builder) addElementRecord(rec Record, at int64) error {
	t := rec.Type
	switch {
	case t.IsElementStart():
		return b.fail(at, "%s starts inside an open %s element", t, b.elem.Kind)
	case t == ENDSTR:
		return b.fail(at, "ENDSTR inside an open %s element", b.elem.Kind)
	case t == SNAME:
		if !b.elem.IsReference() {
			return b.fail(at, "SNAME inside a %s element", b.elem.Kind)
		}
		if b.elem.Ref != nil {
			return b.fail(at, "repeated SNAME in %s element", b.elem.Kind)
		}
		target, err := nameOf(rec)
		if err != nil {
			return b.wrap(err, at)
		}
		b.elem.Ref = &Reference{Target: target, Head: b.body, NameRecord: rec}
		b.body = nil
	case t == ENDEL:
		b.body = rec.AppendTo(b.body)
		if b.elem.IsReference() {
			if b.elem.Ref == nil {
				return b.fail(at, "%s element without SNAME", b.elem.Kind)
			}
			b.elem.Ref.Tail = b.body
		} else {
			b.elem.Raw = b.body
		}
		b.cur.Elements = append(b.cur.Elements, *b.elem)
		b.elem = nil
		b.body = nil
		b.state = buildingStructure
	default:
		b.body = rec.AppendTo(b.body)
	}
	return nil
}

func (b *builder) requireHeader(at int64) error {
	if !b.hasName {
		return b.fail(at, "library header has no LIBNAME")
	}
	if !b.hasUnit {
		return b.fail(at, "library header has no UNITS")
	}
	return nil
}

func (b *builder) fail(at int64, format string, args ...interface{}) error {
	return b.annotate(formatError(at, format, args...))
}

func (b *builder) wrap(err error, at int64) error {
	return b.annotate(errors.Contextf(err, "at offset %d", at).WithDetail("offset", at))
}

// annotate attaches the open structure, if any, to err.
func (b *builder) annotate(err error) error {
	if b.cur == nil || b.cur.Name == "" {
		return err
	}
	return errors.Contextf(err, "in structure %q", b.cur.Name).WithDetail("structure", b.cur.Name)
}

// nameOf extracts a structure name from a STRNAME or SNAME record.
func nameOf(rec Record) (string, error) {
	if rec.DataType != ASCII {
		return "", errors.Newf(errors.ErrFormat, "%s has data type %d, want ASCII", rec.Type, rec.DataType).
			WithDetail("record", rec.Type.String())
	}
	name := rec.String()
	if name == "" {
		return "", errors.Newf(errors.ErrFormat, "empty %s", rec.Type).
			WithDetail("record", rec.Type.String())
	}
	return name, nil
}
