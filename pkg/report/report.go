// Package report records the outcome of a merge: which output was written,
// its digest, and how every input structure was renamed.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/utils"
	"github.com/beevik/etree"
	"github.com/fxamacker/cbor/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Format is a report encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCBOR Format = "cbor"
)

// Formats lists the supported encodings.
var Formats = []Format{FormatTOML, FormatYAML, FormatJSON, FormatXML, FormatCBOR}

// ParseFormat parses a format name. Empty selects TOML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTOML, nil
	case "yml":
		return FormatYAML, nil
	case FormatTOML, FormatYAML, FormatJSON, FormatXML, FormatCBOR:
		return f, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown report format %q", s).
			WithDetail("format", s)
	}
}

// FormatForPath picks the format matching the extension of path, falling
// back to fallback when the extension is not a report format.
func FormatForPath(path string, fallback Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return fallback
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return fallback
}

// Rename is one structure of an input and its final name.
type Rename struct {
	From string `json:"from" yaml:"from" toml:"from" cbor:"from"`
	To   string `json:"to" yaml:"to" toml:"to" cbor:"to"`
}

// Input is the report entry for one input file.
type Input struct {
	Path       string   `json:"path" yaml:"path" toml:"path" cbor:"path"`
	Library    string   `json:"library" yaml:"library" toml:"library" cbor:"library"`
	Structures int      `json:"structures" yaml:"structures" toml:"structures" cbor:"structures"`
	Renamed    int      `json:"renamed" yaml:"renamed" toml:"renamed" cbor:"renamed"`
	Renames    []Rename `json:"renames" yaml:"renames" toml:"renames" cbor:"renames"`
}

// Report is the serializable summary of a merge. The digest is kept as a
// hex string since TOML integers are signed.
type Report struct {
	Output     string  `json:"output" yaml:"output" toml:"output" cbor:"output"`
	Library    string  `json:"library" yaml:"library" toml:"library" cbor:"library"`
	UserUnit   float64 `json:"user_unit" yaml:"user_unit" toml:"user_unit" cbor:"user_unit"`
	DBUnit     float64 `json:"db_unit" yaml:"db_unit" toml:"db_unit" cbor:"db_unit"`
	Structures int     `json:"structures" yaml:"structures" toml:"structures" cbor:"structures"`
	Bytes      int     `json:"bytes" yaml:"bytes" toml:"bytes" cbor:"bytes"`
	Digest     string  `json:"digest" yaml:"digest" toml:"digest" cbor:"digest"`
	Inputs     []Input `json:"inputs" yaml:"inputs" toml:"inputs" cbor:"inputs"`
}

// New builds a report from a merge result. Renames are ordered by original
// name so encodings are stable.
func New(res *merge.Result) *Report {
	r := &Report{
		Output:     res.Output,
		Library:    res.Library,
		UserUnit:   res.Units.UserUnit,
		DBUnit:     res.Units.DBUnit,
		Structures: res.Structures,
		Bytes:      res.Bytes,
		Digest:     FormatDigest(res.Digest),
	}
	for _, in := range res.Inputs {
		entry := Input{
			Path:       in.Path,
			Library:    in.Library,
			Structures: in.Structures,
			Renamed:    in.Renamed(),
			Renames:    make([]Rename, 0, len(in.Renames)),
		}
		for from, to := range in.Renames {
			entry.Renames = append(entry.Renames, Rename{From: from, To: to})
		}
		sort.Slice(entry.Renames, func(i, j int) bool {
			return entry.Renames[i].From < entry.Renames[j].From
		})
		r.Inputs = append(r.Inputs, entry)
	}
	return r
}

// FormatDigest renders a digest as 16 hex digits.
func FormatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

// Encode serializes r in format f.
func Encode(r *Report, f Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatTOML:
		data, err = toml.Marshal(r)
	case FormatYAML:
		data, err = yaml.Marshal(r)
	case FormatJSON:
		data, err = json.MarshalIndent(r, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case FormatXML:
		data, err = encodeXML(r)
	case FormatCBOR:
		data, err = encodeCBOR(r)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown report format %q", f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to encode %s report", f)
	}
	return data, nil
}

func encodeCBOR(r *Report) ([]byte, error) {
	em, err := cbor.EncOptions{Sort: cbor.SortCoreDeterministic}.EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(r)
}

func encodeXML(r *Report) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("merge")
	root.CreateAttr("output", r.Output)
	root.CreateAttr("library", r.Library)
	root.CreateAttr("structures", strconv.Itoa(r.Structures))
	root.CreateAttr("bytes", strconv.Itoa(r.Bytes))
	root.CreateAttr("digest", r.Digest)

	units := root.CreateElement("units")
	units.CreateAttr("user", strconv.FormatFloat(r.UserUnit, 'g', -1, 64))
	units.CreateAttr("database", strconv.FormatFloat(r.DBUnit, 'g', -1, 64))

	for _, in := range r.Inputs {
		el := root.CreateElement("input")
		el.CreateAttr("path", in.Path)
		el.CreateAttr("library", in.Library)
		el.CreateAttr("structures", strconv.Itoa(in.Structures))
		el.CreateAttr("renamed", strconv.Itoa(in.Renamed))
		for _, rn := range in.Renames {
			s := el.CreateElement("structure")
			s.CreateAttr("from", rn.From)
			s.CreateAttr("to", rn.To)
		}
	}

	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes r and uploads it to path.
func Write(ctx context.Context, fs afs.Service, path string, r *Report, f Format) error {
	data, err := Encode(r, f)
	if err != nil {
		return err
	}
	if fs == nil {
		fs = afs.New()
	}
	if err := fs.Upload(ctx, utils.Location(path), 0644, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write report %s", path).
			WithDetail("path", path)
	}
	return nil
}
