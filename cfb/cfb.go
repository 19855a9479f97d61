// Package cfb is a read-only parser for the OLE2 Compound File Binary
// container ([MS-CFB]) used by XLS and other legacy Office formats.
//
// It is adapted from the CFB/OLE2 handling in this module's BIFF
// reader (itself a close Go port of Python xlrd's compdoc module),
// generalised into a standalone reader with path-based stream lookup
// instead of xlrd's XLS-specific stream-name shortcuts.
package cfb

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/asportagro/gosheet/byteio"
)

// Sentinel FAT entries, per [MS-CFB].
const (
	DIFSECT    = 0xFFFFFFFC
	FATSECT    = 0xFFFFFFFD
	ENDOFCHAIN = 0xFFFFFFFE
	FREESECT   = 0xFFFFFFFF
	maxRegSect = 0xFFFFFFFA

	headerSize    = 512
	numDIFATInHdr = 109

	// maxChainHops guards against corrupt FAT/mini-FAT chains looping
	// forever; spec §5 fixes this at 100,000.
	maxChainHops = 100000
)

var signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// MalformedContainerError reports a structural violation of the CFB
// container, naming the offending field.
type MalformedContainerError struct {
	Field string
}

func (e *MalformedContainerError) Error() string {
	return "cfb: malformed container: " + e.Field
}

func malformed(format string, args ...any) error {
	return &MalformedContainerError{Field: fmt.Sprintf(format, args...)}
}

// EntryType enumerates CFB directory entry kinds.
type EntryType int

const (
	EntryUnknown EntryType = 0
	EntryStorage EntryType = 1
	EntryStream  EntryType = 2
	EntryRoot    EntryType = 5
)

// DirEntry is one 128-byte CFB directory record, plus tree-navigation
// fields and its materialised path.
type DirEntry struct {
	Index     int
	Name      string
	Type      EntryType
	Color     byte
	Left      int32
	Right     int32
	Child     int32
	StartSect uint32
	Size      uint64

	Path string // set by buildPaths
}

// Reader holds a parsed CFB container: the flat FAT array, the
// mini-FAT, the mini-stream, and the directory tree with materialised
// paths.
type Reader struct {
	data []byte

	sectorSize     int
	miniSectorSize int
	miniCutoff     uint32

	fat     []uint32
	miniFAT []uint32

	dir       []DirEntry
	miniSteam []byte // root entry's regular-FAT stream: the mini-stream container

	pathIndex map[string]int // lower-cased full path -> dir index
}

// Open parses mem as an OLE2 compound file.
func Open(mem []byte) (*Reader, error) {
	if len(mem) < headerSize {
		return nil, malformed("file shorter than the 512-byte header")
	}
	if [8]byte(mem[:8]) != signature {
		return nil, malformed("bad signature")
	}
	if mem[28] != 0xFE || mem[29] != 0xFF {
		return nil, malformed("expected little-endian byte-order mark FE FF")
	}

	r := &Reader{data: mem}

	sectorShift, _ := byteio.U16LE(mem, 30)
	miniSectorShift, _ := byteio.U16LE(mem, 32)
	if sectorShift > 20 {
		return nil, malformed("sector shift %d is not plausible", sectorShift)
	}
	r.sectorSize = 1 << sectorShift
	r.miniSectorSize = 1 << miniSectorShift

	numFATSects, _ := byteio.U32LE(mem, 44)
	dirStart, _ := byteio.U32LE(mem, 48)
	r.miniCutoff, _ = byteio.U32LE(mem, 56)
	miniFATStart, _ := byteio.U32LE(mem, 60)
	numMiniFATSects, _ := byteio.U32LE(mem, 64)
	difatStart, _ := byteio.U32LE(mem, 68)
	numDIFATSects, _ := byteio.U32LE(mem, 72)

	difat := make([]uint32, 0, numDIFATInHdr)
	for i := 0; i < numDIFATInHdr; i++ {
		v, _ := byteio.U32LE(mem, 76+i*4)
		difat = append(difat, v)
	}

	fatSectors, err := r.readDIFATChain(difat, difatStart, int(numDIFATSects))
	if err != nil {
		return nil, err
	}
	if len(fatSectors) > int(numFATSects) {
		fatSectors = fatSectors[:numFATSects]
	}

	r.fat, err = r.readFATSectors(fatSectors)
	if err != nil {
		return nil, err
	}

	if numMiniFATSects > 0 {
		r.miniFAT, err = r.readChainAsUint32s(miniFATStart, int(numMiniFATSects))
		if err != nil {
			return nil, err
		}
	}

	dirBytes, err := r.readStreamByFAT(dirStart)
	if err != nil {
		return nil, err
	}
	r.dir = parseDirectory(dirBytes)
	if len(r.dir) == 0 {
		return nil, malformed("empty directory stream")
	}

	root := r.dir[0]
	if root.Size > 0 {
		r.miniSteam, err = r.readStreamByFAT(root.StartSect)
		if err != nil {
			return nil, err
		}
		if uint64(len(r.miniSteam)) > root.Size {
			r.miniSteam = r.miniSteam[:root.Size]
		}
	}

	r.buildPaths()
	return r, nil
}

// readDIFATChain concatenates the header's inline DIFAT entries with
// those read from the chain of DIFAT sectors, and returns the list of
// FAT sector numbers.
func (r *Reader) readDIFATChain(inline []uint32, start uint32, count int) ([]uint32, error) {
	fatSectors := make([]uint32, 0, len(inline)+count)
	for _, v := range inline {
		if v != FREESECT && v != ENDOFCHAIN {
			fatSectors = append(fatSectors, v)
		}
	}
	sect := start
	entriesPerSector := r.sectorSize/4 - 1
	for hops := 0; sect != ENDOFCHAIN && sect != FREESECT && count > 0; hops++ {
		if hops > maxChainHops {
			return nil, malformed("DIFAT chain exceeds %d hops", maxChainHops)
		}
		buf, err := r.sectorAt(sect)
		if err != nil {
			return nil, err
		}
		for i := 0; i < entriesPerSector; i++ {
			v, _ := byteio.U32LE(buf, i*4)
			if v != FREESECT && v != ENDOFCHAIN {
				fatSectors = append(fatSectors, v)
			}
		}
		next, _ := byteio.U32LE(buf, entriesPerSector*4)
		sect = next
		count--
	}
	return fatSectors, nil
}

// readFATSectors loads each FAT sector and concatenates the result
// into one flat FAT array of 32-bit entries.
func (r *Reader) readFATSectors(sectors []uint32) ([]uint32, error) {
	entriesPerSector := r.sectorSize / 4
	fat := make([]uint32, 0, len(sectors)*entriesPerSector)
	for _, sect := range sectors {
		buf, err := r.sectorAt(sect)
		if err != nil {
			return nil, err
		}
		for i := 0; i < entriesPerSector; i++ {
			v, _ := byteio.U32LE(buf, i*4)
			fat = append(fat, v)
		}
	}
	return fat, nil
}

// readChainAsUint32s follows a chain of `count` regular sectors
// starting at `start` through the FAT and returns their contents
// reinterpreted as a flat []uint32 array (used for the mini-FAT).
func (r *Reader) readChainAsUint32s(start uint32, count int) ([]uint32, error) {
	entriesPerSector := r.sectorSize / 4
	out := make([]uint32, 0, count*entriesPerSector)
	sect := start
	for hops := 0; sect != ENDOFCHAIN && sect != FREESECT && hops < count; hops++ {
		if hops > maxChainHops {
			return nil, malformed("mini-FAT chain exceeds %d hops", maxChainHops)
		}
		buf, err := r.sectorAt(sect)
		if err != nil {
			return nil, err
		}
		for i := 0; i < entriesPerSector; i++ {
			v, _ := byteio.U32LE(buf, i*4)
			out = append(out, v)
		}
		if int(sect) >= len(r.fat) {
			break
		}
		sect = r.fat[sect]
	}
	return out, nil
}

// sectorAt returns the sectorSize bytes of regular sector n. Sector n
// starts at byte offset (n+1)*sectorSize (the first 512 bytes are the
// header).
func (r *Reader) sectorAt(n uint32) ([]byte, error) {
	off := int(n+1) * r.sectorSize
	return byteio.Slice(r.data, off, r.sectorSize)
}

// readStreamByFAT follows the regular FAT chain starting at `start`
// and concatenates every sector into one contiguous stream.
func (r *Reader) readStreamByFAT(start uint32) ([]byte, error) {
	var out []byte
	sect := start
	for hops := 0; sect != ENDOFCHAIN && sect != FREESECT; hops++ {
		if hops > maxChainHops {
			return nil, malformed("FAT chain exceeds %d hops", maxChainHops)
		}
		if sect > maxRegSect || int(sect) >= len(r.fat) {
			return nil, malformed("sector reference %d beyond file end", sect)
		}
		buf, err := r.sectorAt(sect)
		if err != nil {
			return nil, malformed("sector reference %d beyond file end", sect)
		}
		out = append(out, buf...)
		sect = r.fat[sect]
	}
	return out, nil
}

// readStreamByMiniFAT follows the mini-FAT chain starting at `start`
// in miniSectorSize-byte chunks out of the root's mini-stream.
func (r *Reader) readStreamByMiniFAT(start uint32) ([]byte, error) {
	var out []byte
	sect := start
	for hops := 0; sect != ENDOFCHAIN && sect != FREESECT; hops++ {
		if hops > maxChainHops {
			return nil, malformed("mini-FAT chain exceeds %d hops", maxChainHops)
		}
		if int(sect) >= len(r.miniFAT) {
			return nil, malformed("mini-sector reference %d beyond mini-FAT end", sect)
		}
		off := int(sect) * r.miniSectorSize
		if off+r.miniSectorSize > len(r.miniSteam) {
			return nil, malformed("mini-sector reference %d beyond mini-stream end", sect)
		}
		out = append(out, r.miniSteam[off:off+r.miniSectorSize]...)
		sect = r.miniFAT[sect]
	}
	return out, nil
}

// parseDirectory decodes the directory stream into 128-byte entries.
func parseDirectory(buf []byte) []DirEntry {
	var entries []DirEntry
	for off := 0; off+128 <= len(buf); off += 128 {
		entry := buf[off : off+128]
		nameLen, _ := byteio.U16LE(entry, 64)
		var name string
		if nameLen >= 2 && int(nameLen)-2 <= 64 {
			raw := entry[:nameLen-2]
			words := make([]uint16, len(raw)/2)
			for i := range words {
				words[i] = uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
			}
			name = string(utf16.Decode(words))
		}
		etype, _ := byteio.U8(entry, 66)
		color, _ := byteio.U8(entry, 67)
		left, _ := byteio.I32LE(entry, 68)
		right, _ := byteio.I32LE(entry, 72)
		child, _ := byteio.I32LE(entry, 76)
		startSect, _ := byteio.U32LE(entry, 116)
		size, _ := byteio.U64LE(entry, 120)

		entries = append(entries, DirEntry{
			Index:     len(entries),
			Name:      name,
			Type:      EntryType(etype),
			Color:     color,
			Left:      left,
			Right:     right,
			Child:     child,
			StartSect: startSect,
			Size:      size,
		})
	}
	return entries
}

// buildPaths walks the red-black directory tree from the root (index
// 0) and materialises each entry's full path, à la spec §4.3's "path
// materialisation": siblings share a parent path, a child subtree
// contributes entries named parent-path + "/" + entry-name.
func (r *Reader) buildPaths() {
	r.dir[0].Path = "/"
	r.pathIndex = map[string]int{"/": 0}
	var walk func(parentPath string, did int32)
	walk = func(parentPath string, did int32) {
		if did < 0 || int(did) >= len(r.dir) {
			return
		}
		e := &r.dir[did]
		walk(parentPath, e.Left)
		if e.Index != 0 {
			path := parentPath
			if path != "/" {
				path += "/"
			}
			path += e.Name
			e.Path = path
			r.pathIndex[strings.ToLower(path)] = e.Index
		}
		walk(parentPath, e.Right)
		if e.Type == EntryStorage || e.Type == EntryRoot {
			childParent := e.Path
			if e.Index == 0 {
				childParent = "/"
			}
			walk(childParent, e.Child)
		}
	}
	walk("/", r.dir[0].Child)
}

// Paths returns every stream/storage path discovered in the
// directory, root first.
func (r *Reader) Paths() []string {
	paths := make([]string, 0, len(r.dir))
	for _, e := range r.dir {
		if e.Path != "" {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// ErrStreamNotFound is returned by Stream when no entry matches path.
var ErrStreamNotFound = errors.New("cfb: stream not found")

// Stream extracts the contiguous bytes of the stream at path
// (case-insensitive, "/"-separated, leading slash optional). Streams
// smaller than the mini-stream cutoff are served from the mini-stream
// via the mini-FAT; larger streams follow the regular FAT.
func (r *Reader) Stream(path string) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	idx, ok := r.pathIndex[strings.ToLower(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, path)
	}
	e := r.dir[idx]
	if e.Type != EntryStream {
		return nil, fmt.Errorf("cfb: %s is not a stream", path)
	}

	var out []byte
	var err error
	if e.Size >= uint64(r.miniCutoff) {
		out, err = r.readStreamByFAT(e.StartSect)
	} else {
		out, err = r.readStreamByMiniFAT(e.StartSect)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > e.Size {
		out = out[:e.Size]
	}
	return out, nil
}

// Entry returns the directory entry at path, or ErrStreamNotFound.
func (r *Reader) Entry(path string) (DirEntry, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	idx, ok := r.pathIndex[strings.ToLower(path)]
	if !ok {
		return DirEntry{}, fmt.Errorf("%w: %s", ErrStreamNotFound, path)
	}
	return r.dir[idx], nil
}
