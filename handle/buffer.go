package handle

import (
	"fmt"
	"strings"
)

// BufferRole is the primary use of a buffer.
type BufferRole uint8

const (
	// RoleVertex holds per-vertex or per-instance attributes.
	RoleVertex BufferRole = iota

	// RoleIndex holds 16- or 32-bit indices.
	RoleIndex

	// RoleUniform holds shader constants.
	RoleUniform

	// RoleStorage is a general shader-accessible buffer.
	RoleStorage
)

// String returns the role name.
func (r BufferRole) String() string {
	switch r {
	case RoleVertex:
		return "Vertex"
	case RoleIndex:
		return "Index"
	case RoleUniform:
		return "Uniform"
	case RoleStorage:
		return "Storage"
	default:
		return fmt.Sprintf("BufferRole(%d)", uint8(r))
	}
}

// BufferUsage describes how often a buffer's contents change.
type BufferUsage uint8

const (
	// UsageConst buffers are written once at creation.
	UsageConst BufferUsage = iota

	// UsageDynamic buffers are updated from the CPU.
	UsageDynamic
)

// String returns the usage name.
func (u BufferUsage) String() string {
	switch u {
	case UsageConst:
		return "Const"
	case UsageDynamic:
		return "Dynamic"
	default:
		return fmt.Sprintf("BufferUsage(%d)", uint8(u))
	}
}

// Bind is a set of additional bind flags.
type Bind uint8

const (
	// BindShaderResource allows binding as a read-only shader resource.
	BindShaderResource Bind = 1 << iota

	// BindUnordered allows read-write shader access.
	BindUnordered

	// BindTransferSrc allows copying from the buffer.
	BindTransferSrc

	// BindTransferDst allows copying into the buffer.
	BindTransferDst
)

// Has reports whether all flags in f are set.
func (b Bind) Has(f Bind) bool { return b&f == f }

// String returns the set flags joined by "|".
func (b Bind) String() string {
	if b == 0 {
		return "0"
	}
	names := []string{"ShaderResource", "Unordered", "TransferSrc", "TransferDst"}
	var parts []string
	for i, n := range names {
		if b&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// BufferInfo describes a buffer allocation.
type BufferInfo struct {
	Role  BufferRole
	Usage BufferUsage
	Bind  Bind

	// Size is the total size in bytes.
	Size uint64

	// Stride is the size of one element in bytes.
	Stride uint64
}
