// grouptool is a CLI utility for working with OpenClonk groups.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/ocmapgen/internal/mattex"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "pack":
		cmdPack(args)
	case "materials", "mat":
		cmdMaterials(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grouptool - OpenClonk group utility

Usage:
  grouptool <command> [options]

Commands:
  info <group>                        Show group information
  list <group> [wildcard]             List entries (optional wildcard, e.g. "*.png|*.bmp")
  extract <group> <wildcard> [output] Extract matching entries to directory
  pack <directory> <output>           Pack a directory into a packed group
  materials <Material.ocg>            Show texture map entries and average colors

Nested groups are addressed with '/', e.g. Objects.ocd/Libraries.ocd/Map.ocd.

Examples:
  grouptool info planet/Material.ocg
  grouptool list planet/Material.ocg "*.ocm"
  grouptool extract planet/Objects.ocd/Libraries.ocd/Map.ocd "*.c" ./output
  grouptool pack ./Material Material.ocg`)
}

// openPath opens a group path whose trailing elements may be child groups
// inside packed files.
func openPath(path string) (*c4group.Group, error) {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err == nil {
		return c4group.Open(path, false)
	}

	// Walk up to the first element that exists on disk, then descend into
	// child groups.
	var children []string
	base := path
	for {
		children = append([]string{filepath.Base(base)}, children...)
		parent := filepath.Dir(base)
		if parent == base {
			return nil, fmt.Errorf("group not found: %s", path)
		}
		base = parent
		if _, err := os.Stat(base); err == nil {
			break
		}
	}

	g, err := c4group.Open(base, false)
	if err != nil {
		return nil, err
	}
	for _, name := range children {
		if g, err = c4group.OpenAsChild(g, name, false, false); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grouptool info <group>")
		os.Exit(1)
	}

	g, err := openPath(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer g.Close()

	// Count by extension
	extCount := make(map[string]int)
	var totalSize int
	entries := 0
	for name := range g.Entries("*") {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		size, _ := g.EntrySize(name)
		totalSize += size
		entries++
	}

	kind := "packed"
	if g.IsFolder() {
		kind = "folder"
	}
	fmt.Printf("Group:   %s (%s)\n", g.FullName(), kind)
	fmt.Printf("Entries: %d\n", entries)
	fmt.Printf("Size:    %.2f KB\n", float64(totalSize)/1024)
	fmt.Println()
	fmt.Println("Entries by type:")

	// Sort by count
	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})

	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries (0 = all)")
	sizes := fs.Bool("s", false, "Show entry sizes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grouptool list <group> [wildcard]")
		os.Exit(1)
	}

	g, err := openPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer g.Close()

	wildcard := "*"
	if fs.NArg() > 1 {
		wildcard = fs.Arg(1)
	}

	count := 0
	for name := range g.Entries(wildcard) {
		if *sizes {
			size, _ := g.EntrySize(name)
			fmt.Printf("%10d  %s\n", size, name)
		} else {
			fmt.Println(name)
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if wildcard != "*" {
		fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", count)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: grouptool extract <group> <wildcard> [output_dir]")
		os.Exit(1)
	}

	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	g, err := openPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer g.Close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// Collect names first; LoadEntry moves the search cursor.
	var names []string
	for name := range g.Entries(fs.Arg(1)) {
		names = append(names, name)
	}

	extracted := 0
	for _, name := range names {
		data, err := g.LoadEntry(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			continue
		}

		outputPath := filepath.Join(outputDir, name)
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d entries\n", extracted)
}

func cmdPack(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: grouptool pack <directory> <output>")
		os.Exit(1)
	}

	files, err := collectFiles(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := c4group.WritePacked(args[1], files); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing group: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Packed: %s (%d entries)\n", args[1], len(files))
}

// collectFiles reads a directory tree; sub-directories become child groups.
func collectFiles(dir string) ([]c4group.File, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]c4group.File, 0, len(items))
	for _, item := range items {
		path := filepath.Join(dir, item.Name())
		if item.IsDir() {
			children, err := collectFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, c4group.File{Name: item.Name(), Child: true, Files: children})
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, c4group.File{Name: item.Name(), Data: data})
	}
	return files, nil
}

func cmdMaterials(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grouptool materials <Material.ocg>")
		os.Exit(1)
	}

	g, err := openPath(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer g.Close()

	textures := mattex.NewTextureMap()
	if err := textures.LoadTextures(g); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading textures: %v\n", err)
		os.Exit(1)
	}
	result, err := textures.LoadMap(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading texture map: %v\n", err)
		os.Exit(1)
	}

	for _, i := range textures.Indices() {
		e, _ := textures.Entry(i)
		color := "(no texture)"
		if avg, ok := textures.AverageColor(mattex.BaseTexture(e.Texture)); ok {
			color = fmt.Sprintf("#%08x", avg)
		}
		fmt.Printf("%3d  %-30s %s\n", i, e.Spec(), color)
	}

	fmt.Fprintf(os.Stderr, "\n(%d entries with textures, %d textures", result.Loaded, len(textures.TextureNames()))
	if result.OverloadMaterials {
		fmt.Fprint(os.Stderr, ", overloads materials")
	}
	if result.OverloadTextures {
		fmt.Fprint(os.Stderr, ", overloads textures")
	}
	fmt.Fprintln(os.Stderr, ")")
}
