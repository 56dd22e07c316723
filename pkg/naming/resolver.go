// Package naming allocates unique structure names across merged libraries.
//
// A Resolver owns a single used-set. Names are claimed in the order they are
// offered: a name nobody has claimed is kept, otherwise the first free
// "name<sep>n" for n counting up from the first suffix is taken. Every
// allocation enters the used-set immediately, so later inputs see renamed
// names as taken too:
//
//	in1 {cell_a, cell_b}, in2 {cell_a, cell_a_2, cell_b}
//	  -> cell_a, cell_b, cell_a_2, cell_a_2_2, cell_b_2
package naming

import (
	"strconv"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

const (
	// DefaultSeparator joins a name and its numeric suffix.
	DefaultSeparator = "_"
	// DefaultFirstSuffix is the first number tried for a taken name.
	DefaultFirstSuffix = 2
)

// Key identifies a structure by the position of its library in the merge
// and its original name.
type Key struct {
	Library int
	Name    string
}

// RenameMap maps the original structure names of one library to their
// final names. It holds an entry for every structure, renamed or not.
type RenameMap map[string]string

// Renamed returns the entries whose final name differs from the original.
func (m RenameMap) Renamed() map[string]string {
	out := make(map[string]string)
	for from, to := range m {
		if from != to {
			out[from] = to
		}
	}
	return out
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSeparator sets the string placed between a name and its suffix.
func WithSeparator(sep string) Option {
	return func(r *Resolver) {
		r.separator = sep
	}
}

// WithFirstSuffix sets the first suffix number tried for a taken name.
func WithFirstSuffix(n int) Option {
	return func(r *Resolver) {
		r.firstSuffix = n
	}
}

// Resolver hands out unique names. It is not safe for concurrent use.
type Resolver struct {
	separator   string
	firstSuffix int
	used        map[string]struct{}
}

// NewResolver returns a Resolver with an empty used-set.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		separator:   DefaultSeparator,
		firstSuffix: DefaultFirstSuffix,
		used:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Used reports whether name has been allocated.
func (r *Resolver) Used(name string) bool {
	_, ok := r.used[name]
	return ok
}

// Len is the number of allocated names.
func (r *Resolver) Len() int {
	return len(r.used)
}

// Allocate claims name, or the first free suffixed variant of it, and
// returns the claimed name.
func (r *Resolver) Allocate(name string) string {
	final := name
	for n := r.firstSuffix; r.Used(final); n++ {
		final = name + r.separator + strconv.Itoa(n)
	}
	r.used[final] = struct{}{}
	return final
}

// Resolve allocates a final name for every key in order. A key offered
// twice is an error since one library cannot define a name twice.
func (r *Resolver) Resolve(keys []Key) (map[Key]string, error) {
	out := make(map[Key]string, len(keys))
	for _, k := range keys {
		if _, dup := out[k]; dup {
			return nil, errors.Newf(errors.ErrDuplicateName,
				"structure %q is defined more than once in library %d", k.Name, k.Library).
				WithDetail("structure", k.Name).
				WithDetail("library", k.Library)
		}
		out[k] = r.Allocate(k.Name)
	}
	return out, nil
}

// RenameMaps resolves the structure names of each library, given in merge
// order, and returns one RenameMap per library.
func (r *Resolver) RenameMaps(libraries [][]string) ([]RenameMap, error) {
	var keys []Key
	for i, names := range libraries {
		for _, name := range names {
			keys = append(keys, Key{Library: i, Name: name})
		}
	}
	resolved, err := r.Resolve(keys)
	if err != nil {
		return nil, err
	}
	maps := make([]RenameMap, len(libraries))
	for i, names := range libraries {
		maps[i] = make(RenameMap, len(names))
		for _, name := range names {
			maps[i][name] = resolved[Key{Library: i, Name: name}]
		}
	}
	return maps, nil
}
