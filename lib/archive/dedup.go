// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

// DedupTable maps chunk content ids to their assigned chunk indexes
// during a build. Indexes are assigned monotonically (0, 1, 2, …) in
// first-seen order across the whole scan, which also fixes the stable
// member names chunks are stored under. The table is build-local and
// never persisted itself: the index assignment survives in the chunk
// member naming and in the manifest's ordered chunk-id list.
//
// Not safe for concurrent use. The builder mutates it from a single
// goroutine.
type DedupTable struct {
	indexes map[ChunkID]int
	stats   DedupStats
}

// DedupStats are the statistics the table maintains incrementally as
// chunks are inserted. They feed the archive manifest.
type DedupStats struct {
	// TotalChunks is the number of chunks seen, duplicates included.
	TotalChunks int

	// UniqueChunks is the number of distinct content ids seen.
	UniqueChunks int

	// DuplicatesFound is the number of insertions that hit an
	// existing id.
	DuplicatesFound int

	// TotalBytes is the byte sum of all chunks seen.
	TotalBytes uint64

	// DeduplicatedBytes is the byte sum of unique chunks only: the
	// payload volume actually stored.
	DeduplicatedBytes uint64
}

// SavingsPercent returns the share of input bytes eliminated by
// deduplication, as a percentage of TotalBytes.
func (s DedupStats) SavingsPercent() float64 {
	if s.TotalBytes == 0 {
		return 0
	}
	saved := s.TotalBytes - s.DeduplicatedBytes
	return float64(saved) / float64(s.TotalBytes) * 100
}

// NewDedupTable creates an empty table.
func NewDedupTable() *DedupTable {
	return &DedupTable{indexes: make(map[ChunkID]int)}
}

// Insert records a chunk occurrence of the given uncompressed length.
// If the id is new, the next index is assigned and isNew is true; if
// the id was seen before, its existing index is returned with isNew
// false. Equal ids are treated as equal contents — SHA-256 is assumed
// collision-free for this purpose, so the chunk bytes are never
// compared.
func (t *DedupTable) Insert(id ChunkID, length int) (index int, isNew bool) {
	t.stats.TotalChunks++
	t.stats.TotalBytes += uint64(length)

	if existing, ok := t.indexes[id]; ok {
		t.stats.DuplicatesFound++
		return existing, false
	}

	index = len(t.indexes)
	t.indexes[id] = index
	t.stats.UniqueChunks++
	t.stats.DeduplicatedBytes += uint64(length)
	return index, true
}

// Len returns the number of unique chunks recorded.
func (t *DedupTable) Len() int {
	return len(t.indexes)
}

// Stats returns a snapshot of the accumulated statistics.
func (t *DedupTable) Stats() DedupStats {
	return t.stats
}
