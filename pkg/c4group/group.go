// Package c4group provides access to OpenClonk groups: folder groups (plain
// directories such as Material.ocg/) and packed groups (single gzip-based
// container files). Groups nest; a child group is opened from an entry of its
// parent.
package c4group

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
)

// ErrEntryNotFound is wrapped by errors for entries absent from a group.
var ErrEntryNotFound = errors.New("entry not found")

// Error is an archive failure carrying the group and the underlying diagnostic.
type Error struct {
	Op    string
	Group string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("c4group: %s %s: %v", e.Op, e.Group, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// entry is one member of a group.
type entry struct {
	name   string
	size   int
	offset int  // packed: offset into the data section
	child  bool // packed: stored as a child group
	dir    bool // folder: entry is a directory
}

// Group represents an opened group. A Group opened with OpenAsChild refers to
// its parent; the parent must stay open for as long as the child is used.
//
// The search cursor is shared by Next, Entries and LoadEntry. Callers that
// iterate must Rewind first and must not assume the cursor survives a
// LoadEntry of an unrelated entry.
type Group struct {
	name     string
	fullName string
	parent   *Group

	folder string // directory on disk, empty for packed groups
	data   []byte // packed: data section following the entry table

	entries []entry
	cursor  int
}

// Open opens the group at path. Directories open as folder groups, regular
// files as packed groups. If create is set and path does not exist, an empty
// packed group is written first.
func Open(path string, create bool) (*Group, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) && create {
		if err := WritePacked(path, nil); err != nil {
			return nil, &Error{Op: "create", Group: path, Err: err}
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		return nil, &Error{Op: "open", Group: path, Err: err}
	}

	g := &Group{
		name:     filepath.Base(path),
		fullName: path,
	}

	if info.IsDir() {
		if err := g.readFolder(path); err != nil {
			return nil, &Error{Op: "open", Group: path, Err: err}
		}
		return g, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "open", Group: path, Err: err}
	}
	if err := g.readPacked(raw); err != nil {
		return nil, &Error{Op: "open", Group: path, Err: err}
	}
	return g, nil
}

// OpenAsChild opens the entry name of parent as a group. The exclusive flag is
// accepted for compatibility with the engine's group API; child groups are
// read into memory and never hold the parent's file open. If create is set, a
// missing child is created: as a directory inside folder parents, in memory
// only inside packed parents.
func OpenAsChild(parent *Group, name string, exclusive, create bool) (*Group, error) {
	_ = exclusive

	g := &Group{
		name:     name,
		fullName: parent.fullName + "/" + name,
		parent:   parent,
	}

	i := parent.find(name)
	if i < 0 {
		if !create {
			return nil, &Error{Op: "open child", Group: g.fullName, Err: ErrEntryNotFound}
		}
		if parent.folder != "" {
			dir := filepath.Join(parent.folder, name)
			if err := os.Mkdir(dir, 0755); err != nil {
				return nil, &Error{Op: "create child", Group: g.fullName, Err: err}
			}
			parent.entries = append(parent.entries, entry{name: name, dir: true})
			g.folder = dir
		}
		return g, nil
	}

	e := parent.entries[i]
	g.name = e.name
	g.fullName = parent.fullName + "/" + e.name

	if e.dir {
		if err := g.readFolder(filepath.Join(parent.folder, e.name)); err != nil {
			return nil, &Error{Op: "open child", Group: g.fullName, Err: err}
		}
		return g, nil
	}

	data, err := parent.read(i)
	if err != nil {
		return nil, &Error{Op: "open child", Group: g.fullName, Err: err}
	}
	if isPackedFile(data) {
		err = g.readPacked(data)
	} else {
		err = g.readPayload(data)
	}
	if err != nil {
		return nil, &Error{Op: "open child", Group: g.fullName, Err: err}
	}
	return g, nil
}

// Close releases the group's contents.
func (g *Group) Close() error {
	g.data = nil
	g.entries = nil
	g.cursor = 0
	return nil
}

// Name returns the group's own name.
func (g *Group) Name() string {
	return g.name
}

// FullName returns the group's path including all parent groups.
func (g *Group) FullName() string {
	return g.fullName
}

// IsFolder reports whether the group is an unpacked directory.
func (g *Group) IsFolder() bool {
	return g.folder != ""
}

// Rewind resets the search cursor to the first entry.
func (g *Group) Rewind() {
	g.cursor = 0
}

// Next advances the search cursor to the next entry matching wildcard and
// returns its name.
func (g *Group) Next(wildcard string) (string, bool) {
	for g.cursor < len(g.entries) {
		e := g.entries[g.cursor]
		g.cursor++
		if Match(wildcard, e.name) {
			return e.name, true
		}
	}
	return "", false
}

// Entries returns the names of the remaining entries matching wildcard,
// starting at the current cursor. The sequence is lazy; after Rewind it
// yields the same names in the same order.
func (g *Group) Entries(wildcard string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			name, ok := g.Next(wildcard)
			if !ok || !yield(name) {
				return
			}
		}
	}
}

// HasEntry reports whether an entry matching name exists.
func (g *Group) HasEntry(name string) bool {
	return g.find(name) >= 0
}

// EntrySize returns the size in bytes of the entry matching name.
func (g *Group) EntrySize(name string) (int, bool) {
	i := g.find(name)
	if i < 0 {
		return 0, false
	}
	return g.entries[i].size, true
}

// LoadEntry reads the first entry matching name. The search restarts at the
// first entry and leaves the cursor behind the entry that was read.
func (g *Group) LoadEntry(name string) ([]byte, error) {
	g.Rewind()
	i := -1
	for g.cursor < len(g.entries) {
		if Match(name, g.entries[g.cursor].name) {
			i = g.cursor
			g.cursor++
			break
		}
		g.cursor++
	}
	if i < 0 {
		return nil, &Error{Op: "access", Group: g.fullName, Err: fmt.Errorf("%w: %s", ErrEntryNotFound, name)}
	}

	data, err := g.read(i)
	if err != nil {
		return nil, &Error{Op: "read", Group: g.fullName + "/" + g.entries[i].name, Err: err}
	}
	return data, nil
}

func (g *Group) find(name string) int {
	for i, e := range g.entries {
		if Match(name, e.name) {
			return i
		}
	}
	return -1
}

// read locates entry i, determines its size and reads exactly that many bytes.
func (g *Group) read(i int) ([]byte, error) {
	e := g.entries[i]
	if e.dir {
		return nil, fmt.Errorf("%s is a folder group", e.name)
	}

	if g.folder == "" {
		end := e.offset + e.size
		if e.offset < 0 || end > len(g.data) {
			return nil, fmt.Errorf("entry %s exceeds group data (%d > %d)", e.name, end, len(g.data))
		}
		return bytes.Clone(g.data[e.offset:end]), nil
	}

	f, err := os.Open(filepath.Join(g.folder, e.name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(info.Size())
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	g.entries[i].size = size
	return buf, nil
}

func (g *Group) readFolder(dir string) error {
	// ReadDir sorts by file name, which keeps iteration order stable.
	items, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	g.folder = dir
	g.entries = make([]entry, 0, len(items))
	for _, item := range items {
		e := entry{name: item.Name(), dir: item.IsDir()}
		if !e.dir {
			info, err := item.Info()
			if err != nil {
				return err
			}
			e.size = int(info.Size())
		}
		g.entries = append(g.entries, e)
	}
	return nil
}
