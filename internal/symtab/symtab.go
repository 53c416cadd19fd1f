// Package symtab implements the two scope-local binding registries a
// class compiles against: one per class, one per subroutine, each
// mapping an identifier to a (type, kind, index) triple with dense,
// monotonic per-kind indices.
package symtab

import "fmt"

// Kind is the storage class of a Jack identifier.
type Kind int

const (
	Static Kind = iota
	Field
	Argument
	Local
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "field"
	case Argument:
		return "argument"
	case Local:
		return "local"
	default:
		return "invalid"
	}
}

// Entry is the binding recorded for a single declared name.
type Entry struct {
	Name  string
	Type  string
	Kind  Kind
	Index int
}

// DuplicateSymbolError is returned by Define when name is already
// bound in the table.
type DuplicateSymbolError struct {
	Name string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate symbol %q", e.Name)
}

// Table is one scope-local symbol table. The engine owns two
// instances: a class-scope table (Static/Field) and a
// subroutine-scope table (Argument/Local); Table itself does not
// enforce which Kinds are legal in a given instance, that is the
// engine's responsibility.
type Table struct {
	entries map[string]Entry
	counts  [4]int
}

// New returns an empty table.
func New() *Table {
	t := &Table{}
	t.Reset()
	return t
}

// Reset empties the table and zeroes every per-kind counter.
func (t *Table) Reset() {
	t.entries = make(map[string]Entry)
	t.counts = [4]int{}
}

// Define binds name to (typ, kind), assigning it the next dense index
// for kind. It fails if name is already bound in this table.
func (t *Table) Define(name, typ string, kind Kind) (Entry, error) {
	if _, exists := t.entries[name]; exists {
		return Entry{}, &DuplicateSymbolError{Name: name}
	}
	e := Entry{Name: name, Type: typ, Kind: kind, Index: t.counts[kind]}
	t.counts[kind]++
	t.entries[name] = e
	return e, nil
}

// Count returns the number of symbols of the given kind defined so far.
func (t *Table) Count(kind Kind) int {
	return t.counts[kind]
}

// Contains reports whether name is bound in this table.
func (t *Table) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Lookup returns the entry for name and whether it was found.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// KindOf, TypeOf and IndexOf are undefined if name is absent (they
// return the zero Kind, "" and 0 without reporting it); callers must
// guard with Contains or use Lookup.
func (t *Table) KindOf(name string) Kind   { return t.entries[name].Kind }
func (t *Table) TypeOf(name string) string { return t.entries[name].Type }
func (t *Table) IndexOf(name string) int   { return t.entries[name].Index }

// Dump returns every entry in the table, for verbose diagnostic
// logging. Order is unspecified.
func (t *Table) Dump() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}
