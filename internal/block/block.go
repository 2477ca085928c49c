// Package block holds the controlled unsafe façade: the only place in the
// repo that converts between byte offsets and block headers. Every other
// package reasons about blocks purely through the functions exported here.
package block

import "unsafe"

// WordSize is sizeof(W): a pointer-sized unsigned integer. All block sizes
// are multiples of WordSize, which keeps the low 3 bits of any size free
// for flag bits.
const WordSize = 8

const (
	flagUsed   = 1 << 0
	flagMmaped = 1 << 1
	sizeMask   = ^uint64(7)
)

// MinSize is the smallest size a block may have: header + two free-list
// pointers + footer. A freed block must be able to hold its list links
// regardless of the payload it used to carry.
const MinSize = WordSize + 2*WordSize + WordSize

// Align rounds n up to the next multiple of WordSize.
func Align(n uint64) uint64 {
	return (n + WordSize - 1) &^ (WordSize - 1)
}

func readWord(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr)) //nolint:govet
}

func writeWord(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v //nolint:govet
}

// SizeOf returns the total block size (header + body + footer) packed in
// the high bits of the header word.
func SizeOf(addr uintptr) uint64 {
	return readWord(addr) & sizeMask
}

// IsUsed reports the USED flag (header bit 0).
func IsUsed(addr uintptr) bool {
	return readWord(addr)&flagUsed != 0
}

// IsMmaped reports the MMAPED flag (header bit 1). Set only by the
// large-block collaborator; heap-engine paths never touch it.
func IsMmaped(addr uintptr) bool {
	return readWord(addr)&flagMmaped != 0
}

// SetHeader rewrites the header as (size & ~7) | (used ? 1 : 0). It does not
// preserve MMAPED: callers on the large-block path must set that bit after
// calling SetHeader/SetupBlock, or write the header word directly via
// SetHeaderRaw.
func SetHeader(addr uintptr, size uint64, used bool) {
	h := size & sizeMask
	if used {
		h |= flagUsed
	}
	writeWord(addr, h)
}

// SetHeaderRaw writes the header word directly with both flags under the
// caller's control. Used exclusively by the large-block collaborator,
// which has no footer and must set USED and MMAPED together.
func SetHeaderRaw(addr uintptr, size uint64, used, mmaped bool) {
	h := size & sizeMask
	if used {
		h |= flagUsed
	}
	if mmaped {
		h |= flagMmaped
	}
	writeWord(addr, h)
}

// FooterOf returns the address of the footer word.
func FooterOf(addr uintptr) uintptr {
	return addr + uintptr(SizeOf(addr)) - WordSize
}

// WriteFooter copies the header word to the footer.
func WriteFooter(addr uintptr) {
	writeWord(FooterOf(addr), readWord(addr))
}

// SetupBlock combines SetHeader and WriteFooter. Never sets MMAPED: that
// bit belongs exclusively to the large-block path.
func SetupBlock(addr uintptr, size uint64, used bool) {
	SetHeader(addr, size, used)
	WriteFooter(addr)
}

// NextPhysical returns the block immediately following addr in address
// order (not in the free list).
func NextPhysical(addr uintptr) uintptr {
	return addr + uintptr(SizeOf(addr))
}

// PrevPhysical reads the word immediately before addr (the previous
// block's footer, bit-identical to its header) to learn its size, then
// subtracts. Callers must first establish that addr-WordSize is an
// addressable footer before calling this.
func PrevPhysical(addr uintptr) uintptr {
	prevSize := readWord(addr-WordSize) & sizeMask
	return addr - uintptr(prevSize)
}

// BlockOfPayload recovers the block header address from a caller-visible
// payload pointer (one word back).
func BlockOfPayload(payload uintptr) uintptr {
	return payload - WordSize
}

// PayloadOf returns the caller-visible address for a block: the body,
// one word past the header.
func PayloadOf(addr uintptr) uintptr {
	return addr + WordSize
}

// GetNextFree / SetNextFree / GetPrevFree / SetPrevFree access the two
// pointer-sized fields that overlay the payload of a free block's body.
// They must only be called on blocks with USED=0.

func GetNextFree(addr uintptr) uintptr {
	return uintptr(readWord(addr + WordSize))
}

func SetNextFree(addr uintptr, next uintptr) {
	writeWord(addr+WordSize, uint64(next))
}

func GetPrevFree(addr uintptr) uintptr {
	return uintptr(readWord(addr + 2*WordSize))
}

func SetPrevFree(addr uintptr, prev uintptr) {
	writeWord(addr+2*WordSize, uint64(prev))
}
