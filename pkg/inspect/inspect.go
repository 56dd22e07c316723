// Package inspect summarizes the contents of a decoded library.
package inspect

import (
	"sort"
	"time"

	"github.com/arthur-debert/gdsmerge/pkg/gds"
)

// Structure describes one structure of a library.
type Structure struct {
	Name       string         `json:"name"`
	Elements   int            `json:"elements"`
	Kinds      map[string]int `json:"kinds"`
	References []string       `json:"references,omitempty"`
	// Missing lists referenced structures the library does not define.
	Missing []string `json:"missing,omitempty"`
}

// Summary describes a library.
type Summary struct {
	Path       string      `json:"path"`
	Library    string      `json:"library"`
	Version    int16       `json:"version"`
	UserUnit   float64     `json:"user_unit"`
	DBUnit     float64     `json:"db_unit"`
	Modified   time.Time   `json:"modified"`
	Accessed   time.Time   `json:"accessed"`
	Structures []Structure `json:"structures"`
	// Top lists the structures no other structure references, in
	// definition order.
	Top []string `json:"top"`
}

// Elements is the total element count.
func (s *Summary) Elements() int {
	n := 0
	for _, st := range s.Structures {
		n += st.Elements
	}
	return n
}

// Dangling reports whether any structure references an undefined one.
func (s *Summary) Dangling() bool {
	for _, st := range s.Structures {
		if len(st.Missing) > 0 {
			return true
		}
	}
	return false
}

// Summarize builds a Summary of lib, read from path.
func Summarize(path string, lib *gds.Library) *Summary {
	sum := &Summary{
		Path:     path,
		Library:  lib.Name,
		Version:  lib.Version(),
		UserUnit: lib.Units.UserUnit,
		DBUnit:   lib.Units.DBUnit,
	}
	if ts, err := lib.Timestamps(); err == nil {
		sum.Modified, sum.Accessed = ts.Modified, ts.Accessed
	}

	defined := make(map[string]bool, len(lib.Structures))
	for _, s := range lib.Structures {
		defined[s.Name] = true
	}

	referenced := make(map[string]bool)
	for _, s := range lib.Structures {
		st := Structure{
			Name:     s.Name,
			Elements: len(s.Elements),
			Kinds:    make(map[string]int),
		}
		seen := make(map[string]bool)
		for _, e := range s.Elements {
			st.Kinds[e.Kind.String()]++
		}
		for _, target := range s.References() {
			referenced[target] = true
			if seen[target] {
				continue
			}
			seen[target] = true
			st.References = append(st.References, target)
			if !defined[target] {
				st.Missing = append(st.Missing, target)
			}
		}
		sort.Strings(st.References)
		sort.Strings(st.Missing)
		sum.Structures = append(sum.Structures, st)
	}

	for _, s := range lib.Structures {
		if !referenced[s.Name] {
			sum.Top = append(sum.Top, s.Name)
		}
	}
	return sum
}
