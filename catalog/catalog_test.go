package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkFor_CoversFullListWithoutOverlap(t *testing.T) {
	keywords := DomainKeywords()

	var union []string
	for i := 0; i < 3; i++ {
		union = append(union, ChunkFor(keywords, i, 3)...)
	}

	assert.Equal(t, keywords, union)
}

func TestChunkFor_UnevenSplit(t *testing.T) {
	keywords := []string{"a", "b", "c", "d", "e", "f", "g"}

	assert.Equal(t, []string{"a", "b", "c"}, ChunkFor(keywords, 0, 3))
	assert.Equal(t, []string{"d", "e", "f"}, ChunkFor(keywords, 1, 3))
	assert.Equal(t, []string{"g"}, ChunkFor(keywords, 2, 3))
}

func TestChunkFor_LastChunkMayBeEmpty(t *testing.T) {
	keywords := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"a", "b"}, ChunkFor(keywords, 0, 3))
	assert.Equal(t, []string{"c", "d"}, ChunkFor(keywords, 1, 3))
	assert.Empty(t, ChunkFor(keywords, 2, 3))
}

func TestChunkFor_SingleCycle(t *testing.T) {
	keywords := []string{"a", "b"}

	assert.Equal(t, keywords, ChunkFor(keywords, 0, 1))
}

func TestChunkFor_InvalidInput(t *testing.T) {
	keywords := []string{"a", "b"}

	assert.Empty(t, ChunkFor(keywords, -1, 3))
	assert.Empty(t, ChunkFor(keywords, 3, 3))
	assert.Empty(t, ChunkFor(keywords, 0, 0))
	assert.Empty(t, ChunkFor(nil, 0, 3))
}

func TestChunkFor_StableAcrossCalls(t *testing.T) {
	keywords := DomainKeywords()

	assert.Equal(t, ChunkFor(keywords, 1, 3), ChunkFor(DomainKeywords(), 1, 3))
}
