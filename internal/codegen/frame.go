// Package codegen drives instruction selection over the Optimizer IR,
// assigning ABI locations (internal/codegen/abi) and virtual registers
// (internal/asmcmp), then handing the result to internal/codegen/regalloc
// for physical assignment (spec.md §4.5 "Codegen").
package codegen

// Frame accumulates one function's stack-frame layout as locals and
// spills are requested, grounded on the teacher's accumulate-then-finalize
// style (astc/encode_f32.go builds up per-block statistics before a single
// finalization step) rather than computing the full frame size up front.
type Frame struct {
	Size    int
	Aligned bool
}

// Reserve grows the frame by size bytes (rounded up to an 8-byte
// boundary, matching the System V AMD64 stack alignment requirement) and
// returns the negative displacement from the frame base the caller should
// address the new slot at.
func (f *Frame) Reserve(size int) int {
	size = (size + 7) &^ 7
	f.Size += size
	return -f.Size
}

// Finalize rounds the total frame size up to a 16-byte boundary, which
// System V requires at the point of any `call` instruction, and marks the
// frame as laid out.
func (f *Frame) Finalize() int {
	f.Size = (f.Size + 15) &^ 15
	f.Aligned = true
	return f.Size
}
