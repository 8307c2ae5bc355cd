// Package textenc implements the deterministic text encoder: a pure,
// stateless map from a UTF-8 string to a fixed-width dense vector.
//
// Model training and updating are out of scope here, so rather than wire
// an external embedding-model client this uses a keyed hash expansion over
// the standard library's crypto primitives: deterministic, offline, and
// reproducible across calls and processes.
package textenc

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Encoder maps text to a fixed-dimension vector of reals.
type Encoder interface {
	Encode(text string) []float64
	Dimension() int
}

// HashEncoder is a deterministic, stateless encoder: it expands a SHA-256
// digest of (modelID, text) into D pseudo-random-but-reproducible floats in
// [-1, 1], then L2-normalizes. Two calls with the same modelID and text
// always return bit-identical vectors (R1); different modelIDs give
// different vectors for the same text. Cached embeddings carry no model id,
// so after EMBEDDING_MODEL_ID changes, vectors cached under the old id are
// still served until their TTL expires.
type HashEncoder struct {
	modelID string
	dim     int
}

// NewHashEncoder builds an encoder keyed by modelID producing vectors of
// the given dimension.
func NewHashEncoder(modelID string, dim int) *HashEncoder {
	if dim <= 0 {
		dim = 64
	}
	return &HashEncoder{modelID: modelID, dim: dim}
}

func (e *HashEncoder) Dimension() int { return e.dim }

// Encode is a pure function of (e.modelID, text); implementations MAY
// batch internally but this one has no internal state to batch over, so
// determinism holds trivially per-call.
func (e *HashEncoder) Encode(text string) []float64 {
	out := make([]float64, e.dim)
	block := 0
	var digest [32]byte
	seedInput := e.modelID + "\x00" + text
	for filled := 0; filled < e.dim; filled += 4 {
		h := sha256.New()
		h.Write([]byte(seedInput))
		h.Write(binary.BigEndian.AppendUint32(nil, uint32(block)))
		copy(digest[:], h.Sum(nil))
		for j := 0; j < 4 && filled+j < e.dim; j++ {
			bits := binary.BigEndian.Uint32(digest[j*4 : j*4+4])
			// map to [-1, 1]
			out[filled+j] = (float64(bits)/float64(math.MaxUint32))*2 - 1
		}
		block++
	}
	normalize(out)
	return out
}

func normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
}
