package vectorindex

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Flat is an exact nearest-neighbor index over squared Euclidean distance.
// Vectors are stored row-major in one slice. A built index is never mutated,
// so Search may be called from any number of goroutines.
type Flat struct {
	dimension int
	data      []float32
	n         int
}

var _ port.SimilarityIndex = (*Flat)(nil)

// New copies vectors into a new index. All vectors must share one non-zero length.
func New(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, domain.DimensionMismatch("vector 0", 1, 0)
	}
	f := &Flat{
		dimension: dim,
		data:      make([]float32, 0, dim*len(vectors)),
	}
	for i, v := range vectors {
		if err := f.add(v); err != nil {
			return nil, fmt.Errorf("indexing vector %d: %w", i, err)
		}
	}
	return f, nil
}

func (f *Flat) add(v []float32) error {
	if len(v) != f.dimension {
		return domain.DimensionMismatch(fmt.Sprintf("vector %d", f.n), f.dimension, len(v))
	}
	f.data = append(f.data, v...)
	f.n++
	return nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return f.n }

// Dimension returns the vector length.
func (f *Flat) Dimension() int { return f.dimension }

// Vector returns the i-th indexed vector. The result must not be modified.
func (f *Flat) Vector(i int) []float32 {
	return f.data[i*f.dimension : (i+1)*f.dimension : (i+1)*f.dimension]
}

// Search returns the min(k, Len()) closest vectors to query, nearest first.
// Equal distances keep insertion order.
func (f *Flat) Search(query []float32, k int) ([]port.Hit, error) {
	if k < 1 {
		return nil, domain.InvalidArgument("k must be >= 1, got %d", k)
	}
	if len(query) != f.dimension {
		return nil, domain.DimensionMismatch("query vector", f.dimension, len(query))
	}
	if k > f.n {
		k = f.n
	}

	// Bounded max-heap: the root is the worst of the current best k.
	h := make(hitHeap, 0, k)
	for i := 0; i < f.n; i++ {
		hit := port.Hit{Index: i, Distance: SquaredL2(query, f.Vector(i))}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if less(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	out := []port.Hit(h)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// SquaredL2 returns the squared Euclidean distance between equal-length
// vectors, accumulated in float64. NaN results are reported as +Inf.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	if math.IsNaN(sum) {
		return math.Inf(1)
	}
	return sum
}

// less orders hits by distance, then by index.
func less(a, b port.Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}

type hitHeap []port.Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return less(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(port.Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
