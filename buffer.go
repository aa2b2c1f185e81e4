package gfx

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gfx/handle"
)

// elemSize returns the packed binary size of T, or ErrNotFixedSize.
func elemSize[T any]() (uint64, error) {
	var zero T
	n := binary.Size(zero)
	if n <= 0 {
		return 0, fmt.Errorf("%w: %T", ErrNotFixedSize, zero)
	}
	return uint64(n), nil
}

// createImmutable encodes data little endian and packed, then uploads it.
func createImmutable[T any](f Factory, data []T, role handle.BufferRole) (handle.Buffer[T], error) {
	stride, err := elemSize[T]()
	if err != nil {
		return handle.Buffer[T]{}, err
	}
	bytes, err := binary.Append(make([]byte, 0, stride*uint64(len(data))), binary.LittleEndian, data)
	if err != nil {
		return handle.Buffer[T]{}, fmt.Errorf("gfx: encode %s data: %w", role, err)
	}
	info := handle.BufferInfo{
		Role:   role,
		Usage:  handle.UsageConst,
		Size:   uint64(len(bytes)),
		Stride: stride,
	}
	raw, err := f.CreateBufferImmutableRaw(bytes, info)
	if err != nil {
		return handle.Buffer[T]{}, fmt.Errorf("gfx: create %s buffer: %w", role, err)
	}
	Logger().Debug("gfx: buffer created", "role", role, "size", info.Size, "id", raw.ID)
	return handle.NewBuffer[T](raw), nil
}

// CreateVertexBuffer uploads data to a new immutable vertex buffer.
// Allocation failures are returned, never swallowed.
func CreateVertexBuffer[T any](f Factory, data []T) (handle.Buffer[T], error) {
	return createImmutable(f, data, handle.RoleVertex)
}

// CreateIndexBuffer uploads indices to a new immutable index buffer.
func CreateIndexBuffer[T uint16 | uint32](f Factory, indices []T) (handle.Buffer[T], error) {
	return createImmutable(f, indices, handle.RoleIndex)
}

// CreateVertexBufferWithSlice uploads vertices and indices and returns a
// Slice drawing all of them. The slice length is the index count for
// indexed input and the vertex count for IndexAuto.
func CreateVertexBufferWithSlice[V any](f Factory, vertices []V, indices IntoIndexBuffer) (handle.Buffer[V], Slice, error) {
	vbuf, err := CreateVertexBuffer(f, vertices)
	if err != nil {
		return handle.Buffer[V]{}, Slice{}, err
	}
	if indices == nil {
		indices = IndexAuto{}
	}
	ib, err := indices.intoIndexBuffer(f)
	if err != nil {
		return handle.Buffer[V]{}, Slice{}, err
	}

	n := vbuf.Len()
	if _, auto := ib.(IndexAuto); !auto {
		n = ib.Len()
	}
	slice := Slice{
		Start:      0,
		End:        uint32(n),
		BaseVertex: 0,
		Instances:  nil,
		Buffer:     ib,
	}
	return vbuf, slice, nil
}

// CreateConstantBuffer allocates a dynamic uniform buffer for num elements
// of T, left with the device's default contents.
func CreateConstantBuffer[T any](f Factory, num int) (handle.Buffer[T], error) {
	if num <= 0 {
		return handle.Buffer[T]{}, fmt.Errorf("%w: %d", ErrInvalidCount, num)
	}
	stride, err := elemSize[T]()
	if err != nil {
		return handle.Buffer[T]{}, err
	}
	info := handle.BufferInfo{
		Role:   handle.RoleUniform,
		Usage:  handle.UsageDynamic,
		Size:   stride * uint64(num),
		Stride: stride,
	}
	raw, err := f.CreateBufferRaw(info)
	if err != nil {
		return handle.Buffer[T]{}, fmt.Errorf("gfx: create constant buffer: %w", err)
	}
	Logger().Debug("gfx: buffer created", "role", info.Role, "size", info.Size, "id", raw.ID)
	return handle.NewBuffer[T](raw), nil
}
