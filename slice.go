package gfx

import (
	"fmt"

	"github.com/gogpu/gfx/handle"
)

// IndexBuffer selects how a Slice addresses vertices: in vertex order
// (IndexAuto), or through a 16-bit (Index16) or 32-bit (Index32) index
// buffer. No other implementations exist.
type IndexBuffer interface {
	IntoIndexBuffer

	// Len returns the number of indices, 0 for IndexAuto.
	Len() int

	isIndexBuffer()
}

// IndexAuto draws vertices in order without an index buffer.
type IndexAuto struct{}

// Index16 draws through a buffer of 16-bit indices.
type Index16 struct {
	Buffer handle.Buffer[uint16]
}

// Index32 draws through a buffer of 32-bit indices.
type Index32 struct {
	Buffer handle.Buffer[uint32]
}

func (IndexAuto) Len() int { return 0 }

func (i Index16) Len() int { return i.Buffer.Len() }

func (i Index32) Len() int { return i.Buffer.Len() }

func (IndexAuto) isIndexBuffer() {}
func (Index16) isIndexBuffer()   {}
func (Index32) isIndexBuffer()   {}

func (i IndexAuto) intoIndexBuffer(Factory) (IndexBuffer, error) { return i, nil }
func (i Index16) intoIndexBuffer(Factory) (IndexBuffer, error)   { return i, nil }
func (i Index32) intoIndexBuffer(Factory) (IndexBuffer, error)   { return i, nil }

// IntoIndexBuffer is index input accepted by CreateVertexBufferWithSlice:
// an existing IndexBuffer, or index data (Indices16, Indices32) that is
// uploaded to a new index buffer.
type IntoIndexBuffer interface {
	intoIndexBuffer(f Factory) (IndexBuffer, error)
}

// Indices16 is 16-bit index data to upload.
type Indices16 []uint16

// Indices32 is 32-bit index data to upload.
type Indices32 []uint32

func (d Indices16) intoIndexBuffer(f Factory) (IndexBuffer, error) {
	buf, err := CreateIndexBuffer(f, []uint16(d))
	if err != nil {
		return nil, err
	}
	return Index16{Buffer: buf}, nil
}

func (d Indices32) intoIndexBuffer(f Factory) (IndexBuffer, error) {
	buf, err := CreateIndexBuffer(f, []uint32(d))
	if err != nil {
		return nil, err
	}
	return Index32{Buffer: buf}, nil
}

// Instances describes instanced drawing.
type Instances struct {
	// Count is the number of instances to draw.
	Count uint32

	// Base is the first instance index.
	Base uint32
}

// Slice is a draw range over a vertex buffer.
type Slice struct {
	// Start is the first vertex (or index) to draw.
	Start uint32

	// End is one past the last vertex (or index) to draw.
	End uint32

	// BaseVertex is added to each index before fetching vertices.
	BaseVertex uint32

	// Instances enables instanced drawing when non-nil.
	Instances *Instances

	// Buffer selects the index buffer.
	Buffer IndexBuffer
}

// SliceForVertices returns a Slice that draws every element of vbuf in order.
func SliceForVertices[V any](vbuf handle.Buffer[V]) Slice {
	return Slice{End: uint32(vbuf.Len()), Buffer: IndexAuto{}}
}

// Len returns the number of vertices (or indices) drawn, 0 for an invalid slice.
func (s Slice) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Validate checks that the slice does not end before it starts.
func (s Slice) Validate() error {
	if s.End < s.Start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidSlice, s.Start, s.End)
	}
	return nil
}
