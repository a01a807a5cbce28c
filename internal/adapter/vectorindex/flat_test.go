package vectorindex

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		check   func(error) bool
	}{
		{"empty", nil, domain.IsEmptyCorpus},
		{"zero dimension", [][]float32{{}}, domain.IsDimensionMismatch},
		{"ragged", [][]float32{{1, 2}, {1, 2, 3}}, domain.IsDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vectors)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestNewCopiesVectors(t *testing.T) {
	v := [][]float32{{1, 2}}
	idx, err := New(v)
	require.NoError(t, err)

	v[0][0] = 99
	assert.Equal(t, []float32{1, 2}, idx.Vector(0))
}

func TestSearchOrdering(t *testing.T) {
	idx, err := New([][]float32{
		{0, 0},
		{3, 4},
		{1, 0},
		{0, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	hits, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 0.0, hits[0].Distance)
	assert.Equal(t, 2, hits[1].Index)
	assert.Equal(t, 1.0, hits[1].Distance)
	assert.Equal(t, 3, hits[2].Index)
	assert.Equal(t, 4.0, hits[2].Distance)
}

func TestSearchClampsK(t *testing.T) {
	idx, err := New([][]float32{{1}, {2}})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchSingleVector(t *testing.T) {
	idx, err := New([][]float32{{1, 1, 1}})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 3.0, hits[0].Distance)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	idx, err := New([][]float32{
		{1, 0},
		{0, 1},
		{-1, 0},
		{0, -1},
		{5, 5},
	})
	require.NoError(t, err)

	for k := 1; k <= 4; k++ {
		hits, err := idx.Search([]float32{0, 0}, k)
		require.NoError(t, err)
		require.Len(t, hits, k)
		for i, h := range hits {
			assert.Equal(t, i, h.Index)
			assert.Equal(t, 1.0, h.Distance)
		}
	}
}

func TestSearchExactMatchRanksFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float32, 50)
	for i := range vectors {
		vectors[i] = make([]float32, 8)
		for j := range vectors[i] {
			vectors[i][j] = rng.Float32()
		}
	}
	idx, err := New(vectors)
	require.NoError(t, err)

	for i, v := range vectors {
		hits, err := idx.Search(v, 3)
		require.NoError(t, err)
		assert.Equal(t, i, hits[0].Index)
		assert.Equal(t, 0.0, hits[0].Distance)
	}
}

func TestSearchMatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vectors := make([][]float32, 200)
	for i := range vectors {
		// Coarse values force many exact ties.
		vectors[i] = []float32{float32(rng.Intn(4)), float32(rng.Intn(4))}
	}
	idx, err := New(vectors)
	require.NoError(t, err)

	query := []float32{1, 2}
	all, err := idx.Search(query, len(vectors))
	require.NoError(t, err)
	require.Len(t, all, len(vectors))

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.LessOrEqual(t, prev.Distance, cur.Distance)
		if prev.Distance == cur.Distance {
			assert.Less(t, prev.Index, cur.Index)
		}
	}

	for _, k := range []int{1, 5, 17, 64} {
		top, err := idx.Search(query, k)
		require.NoError(t, err)
		assert.Equal(t, all[:k], top, "k=%d", k)
	}
}

func TestSearchErrors(t *testing.T) {
	idx, err := New([][]float32{{1, 2}})
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 2}, 0)
	assert.True(t, domain.IsInvalidArgument(err))

	_, err = idx.Search([]float32{1, 2, 3}, 1)
	assert.True(t, domain.IsDimensionMismatch(err))
}

func TestSearchNaNRanksLast(t *testing.T) {
	nan := float32(math.NaN())
	idx, err := New([][]float32{{nan}, {2}, {1}})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, []int{hits[0].Index, hits[1].Index, hits[2].Index})
	assert.True(t, math.IsInf(hits[2].Distance, 1))
}

func TestSearchConcurrentReaders(t *testing.T) {
	idx, err := New([][]float32{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hits, err := idx.Search([]float32{2.9, 2.9}, 2)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, 3, hits[0].Index)
				assert.Equal(t, 2, hits[1].Index)
			}
		}()
	}
	wg.Wait()
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, 25.0, SquaredL2([]float32{0, 0}, []float32{3, 4}))
	assert.Equal(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}))
}
