package native

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gfx/pso"
)

// CacheStats reports pipeline cache effectiveness.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// HitRate returns the fraction of lookups served from the cache, or 0 when
// there were none.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// pipelineCache deduplicates render pipelines by descriptor hash.
//
// Lookups take the read lock; creation takes the write lock and checks the
// map again so concurrent misses on one key create a single pipeline.
type pipelineCache struct {
	mu      sync.RWMutex
	entries map[uint64]*pipelineEntry

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{entries: make(map[uint64]*pipelineEntry)}
}

// acquire returns the entry for key, creating it with create on a miss, and
// takes one reference on it.
func (c *pipelineCache) acquire(key uint64, create func() (*pipelineEntry, error)) (*pipelineEntry, error) {
	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		e.refs.Add(1)
		c.mu.RUnlock()
		c.hits.Add(1)
		return e, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.refs.Add(1)
		c.hits.Add(1)
		return e, nil
	}

	c.misses.Add(1)
	e, err := create()
	if err != nil {
		return nil, err
	}
	e.key = key
	e.cached = true
	e.refs.Store(1)
	c.entries[key] = e
	return e, nil
}

// release drops one reference and reports whether it was the last, in
// which case the entry has been removed.
func (c *pipelineCache) release(e *pipelineEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.refs.Add(-1) > 0 {
		return false
	}
	if c.entries[e.key] == e {
		delete(c.entries, e.key)
	}
	return true
}

// drain removes and returns every entry.
func (c *pipelineCache) drain() []*pipelineEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*pipelineEntry, 0, len(c.entries))
	for key, e := range c.entries {
		out = append(out, e)
		delete(c.entries, key)
	}
	return out
}

func (c *pipelineCache) stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}

// hashPipeline computes an FNV-1a hash over everything that affects the
// created pipeline: both shader modules and entry points, the fixed
// function state and every descriptor slot.
func hashPipeline(vs, ps *shaderEntry, desc *pso.Descriptor) uint64 {
	h := fnv.New64a()

	hashWriteUint64(h, vs.codeHash)
	hashWriteString(h, vs.info.EntryPoint)
	hashWriteUint64(h, ps.codeHash)
	hashWriteString(h, ps.info.EntryPoint)

	hashWriteUint32(h, uint32(desc.Primitive))
	r := desc.Rasterizer
	hashWriteUint32(h, uint32(r.FrontFace))
	hashWriteUint32(h, uint32(r.CullFace))
	hashWriteUint32(h, uint32(r.Method))
	hashWriteUint32(h, math.Float32bits(r.LineWidth))
	hashWriteUint32(h, r.SampleCount())
	hashWriteBool(h, r.Offset != nil)
	if r.Offset != nil {
		hashWriteUint32(h, math.Float32bits(r.Offset.Slope))
		hashWriteUint32(h, uint32(r.Offset.Units))
	}

	for _, vb := range desc.VertexBuffers {
		hashWriteBool(h, vb != nil)
		if vb != nil {
			hashWriteUint32(h, vb.Stride)
			hashWriteUint32(h, uint32(vb.Rate))
		}
	}
	for _, a := range desc.Attributes {
		hashWriteBool(h, a != nil)
		if a != nil {
			hashWriteUint32(h, uint32(a.Buffer))
			hashWriteUint32(h, a.Offset)
			hashWriteUint32(h, uint32(a.Format))
			hashWriteUint32(h, a.Location)
		}
	}
	for _, cb := range desc.ConstantBuffers {
		hashWriteBool(h, cb != nil)
		if cb != nil {
			hashWriteBinding(h, cb.Group, cb.Binding, uint32(cb.Stages))
			hashWriteUint64(h, cb.Size)
		}
	}
	for _, rv := range desc.ResourceViews {
		hashWriteBool(h, rv != nil)
		if rv != nil {
			hashWriteBinding(h, rv.Group, rv.Binding, uint32(rv.Stages))
			hashWriteUint32(h, uint32(rv.Texture.Dim))
			hashWriteUint32(h, uint32(rv.Texture.Sample))
			hashWriteBool(h, rv.Texture.Depth)
			hashWriteBool(h, rv.Texture.Multisampled)
		}
	}
	for _, s := range desc.Samplers {
		hashWriteBool(h, s != nil)
		if s != nil {
			hashWriteBinding(h, s.Group, s.Binding, uint32(s.Stages))
			hashWriteBool(h, s.Comparison)
		}
	}
	for _, sb := range desc.StorageBuffers {
		hashWriteBool(h, sb != nil)
		if sb != nil {
			hashWriteBinding(h, sb.Group, sb.Binding, uint32(sb.Stages))
			hashWriteBool(h, sb.ReadOnly)
		}
	}
	for _, ct := range desc.ColorTargets {
		hashWriteBool(h, ct != nil)
		if ct == nil {
			continue
		}
		hashWriteUint32(h, ct.Location)
		hashWriteUint32(h, uint32(ct.Format))
		hashWriteUint32(h, uint32(ct.WriteMask))
		hashWriteBool(h, ct.Blend != nil)
		if ct.Blend != nil {
			hashWriteUint32(h, uint32(ct.Blend.Color.SrcFactor))
			hashWriteUint32(h, uint32(ct.Blend.Color.DstFactor))
			hashWriteUint32(h, uint32(ct.Blend.Color.Operation))
			hashWriteUint32(h, uint32(ct.Blend.Alpha.SrcFactor))
			hashWriteUint32(h, uint32(ct.Blend.Alpha.DstFactor))
			hashWriteUint32(h, uint32(ct.Blend.Alpha.Operation))
		}
	}
	hashWriteBool(h, desc.DepthStencil != nil)
	if ds := desc.DepthStencil; ds != nil {
		hashWriteUint32(h, uint32(ds.Format))
		hashWriteUint32(h, uint32(ds.Compare))
		hashWriteBool(h, ds.Write)
	}

	return h.Sum64()
}

// hashBytes computes an FNV-1a hash of a byte slice.
func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

func hashWriteBinding(h hash.Hash64, group, binding, stages uint32) {
	hashWriteUint32(h, group)
	hashWriteUint32(h, binding)
	hashWriteUint32(h, stages)
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

//nolint:gosec // G115: entry point names are short
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
