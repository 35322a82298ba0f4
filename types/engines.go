// Package types defines the small enums shared by the graph, the slicer and the cost models.
package types

// Engine enumerates the compute/transfer engines whose cost is modeled.
type Engine int

//go:generate go tool enumer -type=Engine -output=gen_engine_enumer.go engines.go

const (
	InvalidEngine Engine = iota

	// MatrixEngine executes matrix multiplications, tile by tile of its geometry.
	MatrixEngine

	// VectorEngine executes elementwise kernels and casts. They are modeled as bandwidth bound.
	VectorEngine

	// DMAEngine copies data between main memory and scratch memory.
	DMAEngine
)

// Engines lists all valid engines, in a stable order.
var Engines = []Engine{MatrixEngine, VectorEngine, DMAEngine}

// ShortName returns a 3-letter name for tables and logs.
func (e Engine) ShortName() string {
	switch e {
	case MatrixEngine:
		return "MME"
	case VectorEngine:
		return "VEC"
	case DMAEngine:
		return "DMA"
	}
	return "???"
}

// MemoryLocation is where a tensor lives when it is not being sliced.
type MemoryLocation int

//go:generate go tool enumer -type=MemoryLocation -linecomment -output=gen_memorylocation_enumer.go engines.go

const (
	// MainMemory is the large backing memory: reading or writing it is boundary traffic.
	MainMemory MemoryLocation = iota // main

	// ScratchMemory is the fast, capacity-limited on-chip memory.
	ScratchMemory // scratch
)
