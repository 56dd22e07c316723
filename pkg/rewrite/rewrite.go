// Package rewrite applies a rename map to the references of a library.
package rewrite

import (
	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/gds"
	"github.com/arthur-debert/gdsmerge/pkg/logging"
	"github.com/arthur-debert/gdsmerge/pkg/naming"
)

// Structure points every SREF and AREF of s at its renamed target. Only the
// Target field changes; the writer re-encodes SNAME from it. A target with no
// entry in m is a dangling reference.
//
// Elements are updated in place, so s should not share references with a
// library that must stay untouched.
func Structure(s *gds.Structure, m naming.RenameMap) error {
	for i := range s.Elements {
		e := &s.Elements[i]
		if !e.IsReference() || e.Ref == nil {
			continue
		}
		final, ok := m[e.Ref.Target]
		if !ok {
			return errors.Newf(errors.ErrDanglingReference,
				"structure %q element %d references undefined structure %q", s.Name, i, e.Ref.Target).
				WithDetail("structure", s.Name).
				WithDetail("target", e.Ref.Target).
				WithDetail("element", i)
		}
		e.Ref.Target = final
	}
	return nil
}

// Library renames every structure of lib and rewrites its references. On
// error lib may be partly rewritten.
func Library(lib *gds.Library, m naming.RenameMap) error {
	logger := logging.GetLogger("rewrite")

	for _, s := range lib.Structures {
		if _, ok := m[s.Name]; !ok {
			return errors.Newf(errors.ErrInternal, "no final name for structure %q", s.Name).
				WithDetail("structure", s.Name)
		}
	}

	renamed := 0
	for _, s := range lib.Structures {
		if err := Structure(s, m); err != nil {
			return err
		}
	}
	for _, s := range lib.Structures {
		if final := m[s.Name]; final != s.Name {
			logger.Trace().Str("from", s.Name).Str("to", final).Msg("Structure renamed")
			s.Name = final
			renamed++
		}
	}

	logger.Debug().
		Str("library", lib.Name).
		Int("structures", len(lib.Structures)).
		Int("renamed", renamed).
		Msg("Library rewritten")
	return nil
}
