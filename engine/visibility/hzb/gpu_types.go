package hzb

import (
	_ "embed"
	"encoding/binary"
	"unsafe"
)

// GPUReduceSource is the canonical WGSL source for the depth reduction pass.
// The pass samples a 2x2 footprint from the finer level and writes the
// maximum, so coarse texels always hold the farthest depth beneath them.
//
//go:embed assets/hzb_reduce.wgsl
var GPUReduceSource string

// GPUReduceParams is the uniform block for one reduction pass.
// Matches the WGSL ReduceParams struct layout exactly (16 bytes, std140
// aligned).
type GPUReduceParams struct {
	SrcWidth  uint32 // offset  0: source mip width in texels
	SrcHeight uint32 // offset  4: source mip height in texels
	MipLevel  uint32 // offset  8: destination mip index, 0 copies the depth target
	_pad      uint32 // offset 12: padding to 16-byte alignment
}

// Size returns the size of the GPUReduceParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (p *GPUReduceParams) Size() int {
	return int(unsafe.Sizeof(*p))
}

// Marshal serializes the params into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (p *GPUReduceParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], p.SrcWidth)
	binary.LittleEndian.PutUint32(buf[4:8], p.SrcHeight)
	binary.LittleEndian.PutUint32(buf[8:12], p.MipLevel)
	binary.LittleEndian.PutUint32(buf[12:16], 0) // padding
	return buf
}
