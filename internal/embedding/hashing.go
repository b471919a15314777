package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"resumatch/internal/keywords"
)

// DefaultHashingDimensions is used when no dimension count is configured.
const DefaultHashingDimensions = 512

// HashingEmbedder is a local, deterministic bag-of-words embedder based on
// the hashing trick. Word unigrams and bigrams are hashed into a signed
// vector which is then L2 normalized. It needs no network access.
type HashingEmbedder struct {
	dims int
}

var _ Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder returns an embedder producing vectors of dims entries.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Model() string {
	return fmt.Sprintf("hashing-%d", h.dims)
}

// Embed returns the zero vector for text without words.
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, h.dims)
	words := keywords.Words(text)
	for i, w := range words {
		h.add(vec, w, 1)
		if i > 0 {
			h.add(vec, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *HashingEmbedder) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	// The top bit picks the sign so colliding features tend to cancel out.
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
