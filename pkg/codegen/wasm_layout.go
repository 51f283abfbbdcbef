package codegen

import "encoding/binary"

// heapBase is H0, the first address the bump allocator hands out (spec
// §3.5). Addresses below it are the read-only literal-data segment plus
// a small scratch window, matching the teacher's fixed low-memory
// reservation for system tables.
const heapBase int32 = 65536

// dataLayout builds the read-only segment [0, D) containing every
// interned string and bytes literal the module references, and
// assembles the Data-section content. Grounded on spec §3.5's linear
// memory map.
type dataLayout struct {
	buf       []byte
	strOffset map[string]int32
}

func newDataLayout() *dataLayout {
	return &dataLayout{strOffset: make(map[string]int32)}
}

// intern stores s's UTF-8 bytes (without a length prefix — the packed
// i64 string descriptor carries the length separately) and returns its
// offset, reusing a prior identical literal instead of duplicating it.
func (d *dataLayout) intern(s string) int32 {
	if off, ok := d.strOffset[s]; ok {
		return off
	}
	off := int32(len(d.buf))
	d.buf = append(d.buf, s...)
	d.strOffset[s] = off
	return off
}

// internBytes lays out a bytes literal as [length][bytes...] (spec
// §3.5's Bytes layout), returning the offset of the length cell.
func (d *dataLayout) internBytes(b []byte) int32 {
	key := "\x00bytes\x00" + string(b)
	if off, ok := d.strOffset[key]; ok {
		return off
	}
	off := int32(len(d.buf))
	var lenCell [4]byte
	binary.LittleEndian.PutUint32(lenCell[:], uint32(len(b)))
	d.buf = append(d.buf, lenCell[:]...)
	d.buf = append(d.buf, b...)
	d.strOffset[key] = off
	return off
}

// size returns D, the current end of the read-only segment.
func (d *dataLayout) size() int32 { return int32(len(d.buf)) }

// checkFits enforces the D <= H0 invariant (spec §3.5's StaticDataOverflow
// edge case): the interned literal segment must never grow past the
// fixed heap base.
func (d *dataLayout) checkFits() error {
	if d.size() > heapBase {
		return &CompileErrorLike{Kind: "StaticDataOverflow", Message: "interned literal data exceeds the reserved static region"}
	}
	return nil
}

// CompileErrorLike mirrors pkg/semantic.CompileError's shape without
// importing pkg/semantic from pkg/codegen (the dependency runs the
// other way: semantic -> ir, codegen -> ir; neither imports the other).
type CompileErrorLike struct {
	Kind    string
	Message string
}

func (e *CompileErrorLike) Error() string { return e.Kind + ": " + e.Message }
