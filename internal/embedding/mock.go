package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const mockDimensions = 64

// MockClient is a deterministic, offline embedding client. Each word hashes
// into a handful of dimensions, so texts sharing words land near each other
// in the vector space. Useful for local runs and tests.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, mockDimensions)
	words := strings.Fields(strings.ToLower(text))
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		seed := h.Sum32()
		// Spread each word over three dimensions with fixed signs.
		for i := 0; i < 3; i++ {
			dim := int((seed >> (i * 8)) % mockDimensions)
			sign := float32(1)
			if (seed>>(i*8+7))&1 == 1 {
				sign = -1
			}
			vec[dim] += sign
		}
	}

	// L2-normalize so cosine behaves like the real provider.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}
