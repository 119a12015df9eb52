package c4group

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func testFiles() []File {
	return []File{
		{Name: "TexMap.txt", Data: []byte("1=Earth-earth\n")},
		{Name: "Earth.ocm", Data: []byte("[Material]\nName=Earth\n")},
		{Name: "earth.png", Data: []byte("not really a png")},
		{Name: "Sub.ocd", Child: true, Files: []File{
			{Name: "Script.c", Data: []byte("func Main() {}")},
		}},
	}
}

func writeTestGroup(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Material.ocg")
	if err := WritePacked(path, testFiles()); err != nil {
		t.Fatalf("failed to write group: %v", err)
	}
	return path
}

func collect(g *Group, wildcard string) []string {
	var names []string
	for name := range g.Entries(wildcard) {
		names = append(names, name)
	}
	return names
}

func TestOpenPacked(t *testing.T) {
	path := writeTestGroup(t)

	g, err := Open(path, false)
	if err != nil {
		t.Fatalf("failed to open group: %v", err)
	}
	defer g.Close()

	if g.IsFolder() {
		t.Error("packed group reported as folder")
	}
	if g.Name() != "Material.ocg" {
		t.Errorf("expected name Material.ocg, got %s", g.Name())
	}
	if g.FullName() != path {
		t.Errorf("expected full name %s, got %s", path, g.FullName())
	}

	want := []string{"TexMap.txt", "Earth.ocm", "earth.png", "Sub.ocd"}
	if got := collect(g, "*"); !slices.Equal(got, want) {
		t.Errorf("expected entries %v, got %v", want, got)
	}
}

func TestRewindReproducesSequence(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	for _, path := range []string{dir, writeTestGroup(t)} {
		g, err := Open(path, false)
		if err != nil {
			t.Fatalf("failed to open %s: %v", path, err)
		}

		first := collect(g, "*")
		if len(first) == 0 {
			t.Fatalf("no entries in %s", path)
		}
		if again := collect(g, "*"); len(again) != 0 {
			t.Errorf("expected exhausted cursor, got %v", again)
		}

		g.Rewind()
		if second := collect(g, "*"); !slices.Equal(first, second) {
			t.Errorf("sequence changed after rewind: %v vs %v", first, second)
		}
		g.Close()
	}
}

func TestWildcard(t *testing.T) {
	g, err := Open(writeTestGroup(t), false)
	if err != nil {
		t.Fatalf("failed to open group: %v", err)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.txt", []string{"TexMap.txt"}},
		{"*.OCM", []string{"Earth.ocm"}},
		{"*.png|*.ocm", []string{"Earth.ocm", "earth.png"}},
		{"?arth.*", []string{"Earth.ocm", "earth.png"}},
		{"*.bmp", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			g.Rewind()
			if got := collect(g, tt.pattern); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLoadEntry(t *testing.T) {
	g, err := Open(writeTestGroup(t), false)
	if err != nil {
		t.Fatalf("failed to open group: %v", err)
	}

	data, err := g.LoadEntry("texmap.txt")
	if err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if !bytes.Equal(data, []byte("1=Earth-earth\n")) {
		t.Errorf("unexpected content %q", data)
	}

	size, ok := g.EntrySize("Earth.ocm")
	if !ok || size != len("[Material]\nName=Earth\n") {
		t.Errorf("unexpected size %d (found=%v)", size, ok)
	}

	_, err = g.LoadEntry("Missing.txt")
	if err == nil {
		t.Fatal("expected error for missing entry")
	}
	var groupErr *Error
	if !errors.As(err, &groupErr) {
		t.Errorf("expected *Error, got %T", err)
	}
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestLoadEntryKeepsIterationPosition(t *testing.T) {
	g, err := Open(writeTestGroup(t), false)
	if err != nil {
		t.Fatalf("failed to open group: %v", err)
	}

	var loaded []string
	for name := range g.Entries("*") {
		if name == "Sub.ocd" {
			continue
		}
		if _, err := g.LoadEntry(name); err != nil {
			t.Fatalf("failed to load %s: %v", name, err)
		}
		loaded = append(loaded, name)
	}

	want := []string{"TexMap.txt", "Earth.ocm", "earth.png"}
	if !slices.Equal(loaded, want) {
		t.Errorf("expected %v, got %v", want, loaded)
	}
}

func TestOpenAsChild(t *testing.T) {
	parent, err := Open(writeTestGroup(t), false)
	if err != nil {
		t.Fatalf("failed to open group: %v", err)
	}

	child, err := OpenAsChild(parent, "Sub.ocd", false, false)
	if err != nil {
		t.Fatalf("failed to open child: %v", err)
	}
	if child.FullName() != parent.FullName()+"/Sub.ocd" {
		t.Errorf("unexpected child full name %s", child.FullName())
	}

	data, err := child.LoadEntry("Script.c")
	if err != nil {
		t.Fatalf("failed to load child entry: %v", err)
	}
	if string(data) != "func Main() {}" {
		t.Errorf("unexpected child content %q", data)
	}

	if _, err := OpenAsChild(parent, "Missing.ocd", false, false); err == nil {
		t.Error("expected error opening missing child")
	}
}

func TestOpenAsChildFolder(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "Objects.ocd", "Libraries.ocd")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := WritePacked(filepath.Join(nested, "Map.ocd"), []File{{Name: "Script.c", Data: []byte("//")}}); err != nil {
		t.Fatal(err)
	}

	g, err := Open(root, false)
	if err != nil {
		t.Fatalf("failed to open folder: %v", err)
	}
	if !g.IsFolder() {
		t.Error("expected folder group")
	}

	objects, err := OpenAsChild(g, "Objects.ocd", false, false)
	if err != nil {
		t.Fatalf("failed to open Objects.ocd: %v", err)
	}
	libraries, err := OpenAsChild(objects, "Libraries.ocd", false, false)
	if err != nil {
		t.Fatalf("failed to open Libraries.ocd: %v", err)
	}
	mapLib, err := OpenAsChild(libraries, "Map.ocd", false, false)
	if err != nil {
		t.Fatalf("failed to open Map.ocd: %v", err)
	}
	if mapLib.IsFolder() {
		t.Error("expected packed Map.ocd")
	}
	if !mapLib.HasEntry("Script.c") {
		t.Error("expected Script.c in Map.ocd")
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "New.ocg")

	if _, err := Open(path, false); err == nil {
		t.Fatal("expected error opening missing group without create")
	}

	g, err := Open(path, true)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	if got := collect(g, "*"); len(got) != 0 {
		t.Errorf("expected empty group, got %v", got)
	}

	dir := t.TempDir()
	folder, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	child, err := OpenAsChild(folder, "Child.ocd", false, true)
	if err != nil {
		t.Fatalf("failed to create child: %v", err)
	}
	if !child.IsFolder() {
		t.Error("expected created child to be a folder")
	}
	if _, err := os.Stat(filepath.Join(dir, "Child.ocd")); err != nil {
		t.Errorf("child directory not created: %v", err)
	}
}

func TestOpenInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Broken.ocg")
	if err := os.WriteFile(path, []byte("definitely not a group"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, false); err == nil {
		t.Error("expected error for invalid group file")
	}
}

func TestScrambleIsInvolution(t *testing.T) {
	buf := []byte("RedWolf Design GrpFolder")
	orig := bytes.Clone(buf)
	scramble(buf)
	if bytes.Equal(buf, orig) {
		t.Fatal("scramble did not change data")
	}
	scramble(buf)
	if !bytes.Equal(buf, orig) {
		t.Errorf("scramble is not its own inverse: %q", buf)
	}
}
