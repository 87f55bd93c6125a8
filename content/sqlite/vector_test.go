package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingRoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0.5, -1.25, 3}
	b := encodeEmbedding(in)
	assert.Len(t, b, 12)

	out, err := decodeEmbedding(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEmbedding_RejectsTruncatedBlob(t *testing.T) {
	t.Parallel()

	_, err := decodeEmbedding([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestCosineDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, cosineDistance([]float32{1, 1}, []float32{2, 2}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 2.0, cosineDistance([]float32{1}, []float32{1, 0}))
	assert.Equal(t, 2.0, cosineDistance([]float32{0, 0}, []float32{1, 0}))
}
