package dbtype

import (
	"sort"
	"strings"
	"sync"

	"github.com/mutgos/dbcore/dberrors"
)

// MaxDirectoryStringBytes caps PropertyDirectory.ToString's output (spec
// §4.5: "capped at 1 MiB; excess is elided with '...'").
const MaxDirectoryStringBytes = 1 << 20

// directoryEntry is one named slot in a PropertyDirectory: it may carry a
// value, a child subdirectory, or both.
type directoryEntry struct {
	value    *PropertyData
	children *PropertyDirectory
}

// PropertyDirectory is a recursive map from path segment to
// (optional value, optional child directory), ordered by segment name.
type PropertyDirectory struct {
	mu      sync.Mutex
	entries map[string]*directoryEntry
	order   []string

	lastAccessName  string
	lastAccessEntry *directoryEntry
}

// NewPropertyDirectory returns an empty directory.
func NewPropertyDirectory() *PropertyDirectory {
	return &PropertyDirectory{entries: make(map[string]*directoryEntry)}
}

func splitPath(path string) ([]string, error) {
	raw := strings.Split(path, "/")

	segments := make([]string, 0, len(raw))

	for _, s := range raw {
		if s == "" {
			continue
		}

		segments = append(segments, s)
	}

	if len(segments) == 0 {
		return nil, dberrors.BadArguments("property path %q has no segments", path)
	}

	return segments, nil
}

// lookup finds name's entry, consulting and refreshing the last-access
// cache. Caller must hold d.mu.
func (d *PropertyDirectory) lookup(name string) (*directoryEntry, bool) {
	if d.lastAccessEntry != nil && d.lastAccessName == name {
		return d.lastAccessEntry, true
	}

	e, ok := d.entries[name]
	if ok {
		d.lastAccessName = name
		d.lastAccessEntry = e
	}

	return e, ok
}

func (d *PropertyDirectory) insertOrdered(name string, e *directoryEntry) {
	if _, exists := d.entries[name]; !exists {
		idx := sort.SearchStrings(d.order, name)
		d.order = append(d.order, "")
		copy(d.order[idx+1:], d.order[idx:])
		d.order[idx] = name
	}

	d.entries[name] = e
	d.lastAccessName = name
	d.lastAccessEntry = e
}

func (d *PropertyDirectory) removeOrdered(name string) {
	delete(d.entries, name)

	idx := sort.SearchStrings(d.order, name)
	if idx < len(d.order) && d.order[idx] == name {
		d.order = append(d.order[:idx], d.order[idx+1:]...)
	}

	if d.lastAccessName == name {
		d.lastAccessName = ""
		d.lastAccessEntry = nil
	}
}

// parseDirectoryPath walks path's segments, optionally creating
// intermediate directories. It returns the leaf directory, the leaf
// segment name, and the chain of directories walked (root first, leaf
// last) used to compute next/previous across sibling boundaries.
func (d *PropertyDirectory) parseDirectoryPath(path string, create bool) (*PropertyDirectory, string, []*PropertyDirectory, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, "", nil, err
	}

	cur := d
	chain := []*PropertyDirectory{d}

	for _, seg := range segments[:len(segments)-1] {
		cur.mu.Lock()
		e, ok := cur.lookup(seg)

		if !ok {
			if !create {
				cur.mu.Unlock()

				return nil, "", nil, dberrors.NotFound("property path segment %q not found", seg)
			}

			e = &directoryEntry{children: NewPropertyDirectory()}
			cur.insertOrdered(seg, e)
		}

		if e.children == nil {
			if !create {
				cur.mu.Unlock()

				return nil, "", nil, dberrors.BadArguments("property path segment %q is not a directory", seg)
			}

			e.children = NewPropertyDirectory()
		}

		next := e.children
		cur.mu.Unlock()

		cur = next
		chain = append(chain, cur)
	}

	return cur, segments[len(segments)-1], chain, nil
}

// Get returns the value stored at path, if any.
func (d *PropertyDirectory) Get(path string) (PropertyData, bool, error) {
	leaf, name, _, err := d.parseDirectoryPath(path, false)
	if err != nil {
		return PropertyData{}, false, err
	}

	leaf.mu.Lock()
	defer leaf.mu.Unlock()

	e, ok := leaf.lookup(name)
	if !ok || e.value == nil {
		return PropertyData{}, false, nil
	}

	return e.value.Clone(), true, nil
}

// Set stores value at path, creating intermediate directories as needed.
func (d *PropertyDirectory) Set(path string, value PropertyData) error {
	leaf, name, _, err := d.parseDirectoryPath(path, true)
	if err != nil {
		return err
	}

	leaf.mu.Lock()
	defer leaf.mu.Unlock()

	cloned := value.Clone()

	e, ok := leaf.lookup(name)
	if !ok {
		leaf.insertOrdered(name, &directoryEntry{value: &cloned})

		return nil
	}

	e.value = &cloned

	return nil
}

// Delete removes the value (and, if the entry has no subdirectory, the
// entry itself) at path. Deleting a directory removes its whole subtree.
func (d *PropertyDirectory) Delete(path string) error {
	leaf, name, _, err := d.parseDirectoryPath(path, false)
	if err != nil {
		return err
	}

	leaf.mu.Lock()
	defer leaf.mu.Unlock()

	e, ok := leaf.lookup(name)
	if !ok {
		return dberrors.NotFound("property path %q not found", path)
	}

	if e.children != nil {
		leaf.removeOrdered(name)

		return nil
	}

	e.value = nil
	leaf.removeOrdered(name)

	return nil
}

// Clear empties the directory of all entries.
func (d *PropertyDirectory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = make(map[string]*directoryEntry)
	d.order = nil
	d.lastAccessName = ""
	d.lastAccessEntry = nil
}

// First returns the name of the lexicographically first entry in d, or
// false if d is empty.
func (d *PropertyDirectory) First() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.order) == 0 {
		return "", false
	}

	return d.order[0], true
}

// Last returns the name of the lexicographically last entry in d, or
// false if d is empty.
func (d *PropertyDirectory) Last() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.order) == 0 {
		return "", false
	}

	return d.order[len(d.order)-1], true
}

// Next returns the name immediately after name in iteration order, or
// false if name is the last entry or not present.
func (d *PropertyDirectory) Next(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := sort.SearchStrings(d.order, name)
	if idx >= len(d.order) || d.order[idx] != name || idx+1 >= len(d.order) {
		return "", false
	}

	return d.order[idx+1], true
}

// Previous returns the name immediately before name in iteration order, or
// false if name is the first entry or not present.
func (d *PropertyDirectory) Previous(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := sort.SearchStrings(d.order, name)
	if idx >= len(d.order) || d.order[idx] != name || idx == 0 {
		return "", false
	}

	return d.order[idx-1], true
}

// ToString renders a breadth-limited recursive listing of d, capped at
// MaxDirectoryStringBytes; excess is elided with "...".
func (d *PropertyDirectory) ToString() string {
	var b strings.Builder

	d.writeTo(&b, "")

	s := b.String()
	if len(s) <= MaxDirectoryStringBytes {
		return s
	}

	return s[:MaxDirectoryStringBytes] + "..."
}

func (d *PropertyDirectory) writeTo(b *strings.Builder, prefix string) {
	d.mu.Lock()
	names := append([]string(nil), d.order...)
	d.mu.Unlock()

	for _, name := range names {
		d.mu.Lock()
		e := d.entries[name]
		d.mu.Unlock()

		if b.Len() > MaxDirectoryStringBytes {
			return
		}

		if e.value != nil {
			b.WriteString(prefix + name + " = " + e.value.ShortString() + "\n")
		}

		if e.children != nil {
			b.WriteString(prefix + name + "/\n")
			e.children.writeTo(b, prefix+name+"/")
		}
	}
}
