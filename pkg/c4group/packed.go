package c4group

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/ocmapgen/pkg/encoding"
)

// Packed groups are gzip streams whose first two magic bytes are replaced.
const (
	packedMagic1 = 0x1e
	packedMagic2 = 0x8c
	gzipMagic1   = 0x1f
	gzipMagic2   = 0x8b
)

const (
	headerID   = "RedWolf Design GrpFolder"
	headerVer1 = 1
	headerVer2 = 2
)

// header is the scrambled group header at the start of a packed payload.
type header struct {
	ID       [28]byte
	Ver1     int32
	Ver2     int32
	Entries  int32
	Reserved [164]byte
}

// entryCore is one record of the entry table following the header.
type entryCore struct {
	FileName   [260]byte
	Packed     int32
	ChildGroup int32
	Size       int32
	Offset     int32
	Reserved1  int32
	Reserved2  int32
	Reserved3  uint8
	Reserved4  uint32
	Executable uint8
	Buffer     [26]byte
}

var (
	headerSize      = binary.Size(header{})
	entryCoreSize   = binary.Size(entryCore{})
	maxEntryName    = len(entryCore{}.FileName)
	maxGroupEntries = 1 << 20
)

// File is an entry to be written into a packed group. If Child is set, Files
// is written as a nested child group and Data is ignored.
type File struct {
	Name  string
	Data  []byte
	Child bool
	Files []File
}

// scramble obfuscates the header in place. It is its own inverse.
func scramble(buf []byte) {
	for i := range buf {
		buf[i] ^= 237
	}
	for i := 0; i+2 < len(buf); i += 3 {
		buf[i], buf[i+2] = buf[i+2], buf[i]
	}
}

func isPackedFile(data []byte) bool {
	return len(data) >= 2 && data[0] == packedMagic1 && data[1] == packedMagic2
}

// readPacked decompresses a packed group file and parses its payload.
func (g *Group) readPacked(raw []byte) error {
	if !isPackedFile(raw) {
		return fmt.Errorf("invalid group magic")
	}

	fixed := bytes.Clone(raw)
	fixed[0], fixed[1] = gzipMagic1, gzipMagic2

	reader, err := gzip.NewReader(bytes.NewReader(fixed))
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("decompressing group: %w", err)
	}
	return g.readPayload(payload)
}

// readPayload parses header, entry table and data section.
func (g *Group) readPayload(payload []byte) error {
	if len(payload) < headerSize {
		return fmt.Errorf("group header truncated")
	}

	hdrBytes := bytes.Clone(payload[:headerSize])
	scramble(hdrBytes)

	var hdr header
	if err := binary.Read(bytes.NewReader(hdrBytes), binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if encoding.FixedStringToUTF8(hdr.ID[:]) != headerID {
		return fmt.Errorf("invalid group header id")
	}
	if hdr.Ver1 != headerVer1 || hdr.Ver2 > headerVer2 {
		return fmt.Errorf("unsupported group version %d.%d", hdr.Ver1, hdr.Ver2)
	}
	if hdr.Entries < 0 || int(hdr.Entries) > maxGroupEntries {
		return fmt.Errorf("invalid entry count %d", hdr.Entries)
	}

	tableEnd := headerSize + int(hdr.Entries)*entryCoreSize
	if tableEnd > len(payload) {
		return fmt.Errorf("entry table truncated")
	}

	table := bytes.NewReader(payload[headerSize:tableEnd])
	g.entries = make([]entry, 0, hdr.Entries)
	for i := 0; i < int(hdr.Entries); i++ {
		var core entryCore
		if err := binary.Read(table, binary.LittleEndian, &core); err != nil {
			return fmt.Errorf("reading entry %d: %w", i, err)
		}
		if core.Size < 0 || core.Offset < 0 {
			return fmt.Errorf("entry %d has invalid size or offset", i)
		}
		g.entries = append(g.entries, entry{
			name:   encoding.FixedStringToUTF8(core.FileName[:]),
			size:   int(core.Size),
			offset: int(core.Offset),
			child:  core.ChildGroup != 0,
		})
	}

	g.data = payload[tableEnd:]
	g.folder = ""
	return nil
}

// WritePacked writes files as a packed group to path.
func WritePacked(path string, files []File) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Pack(f, files); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Pack writes files as a packed group to w.
func Pack(w io.Writer, files []File) error {
	payload, err := buildPayload(files)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compressing group: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing group: %w", err)
	}

	out := buf.Bytes()
	out[0], out[1] = packedMagic1, packedMagic2
	_, err = w.Write(out)
	return err
}

// buildPayload serializes header, entry table and data. Child groups are
// stored as their own uncompressed payload.
func buildPayload(files []File) ([]byte, error) {
	hdr := header{
		Ver1:    headerVer1,
		Ver2:    headerVer2,
		Entries: int32(len(files)),
	}
	copy(hdr.ID[:], headerID)

	var hdrBuf bytes.Buffer
	if err := binary.Write(&hdrBuf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	hdrBytes := hdrBuf.Bytes()
	scramble(hdrBytes)

	var table, data bytes.Buffer
	for _, file := range files {
		if len(encoding.UTF8ToWindows1252(file.Name)) >= maxEntryName {
			return nil, fmt.Errorf("entry name too long: %s", file.Name)
		}

		content := file.Data
		var child int32
		if file.Child {
			nested, err := buildPayload(file.Files)
			if err != nil {
				return nil, fmt.Errorf("packing child %s: %w", file.Name, err)
			}
			content = nested
			child = 1
		}

		var core entryCore
		copy(core.FileName[:], encoding.UTF8ToFixedString(file.Name, maxEntryName))
		core.Packed = 1
		core.ChildGroup = child
		core.Size = int32(len(content))
		core.Offset = int32(data.Len())
		if err := binary.Write(&table, binary.LittleEndian, &core); err != nil {
			return nil, err
		}
		data.Write(content)
	}

	payload := make([]byte, 0, len(hdrBytes)+table.Len()+data.Len())
	payload = append(payload, hdrBytes...)
	payload = append(payload, table.Bytes()...)
	payload = append(payload, data.Bytes()...)
	return payload, nil
}
