package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeIsDeterministic(t *testing.T) {
	// R1: encode(s) = encode(s)
	e := NewHashEncoder("model-a", 32)
	a := e.Encode("hello world")
	b := e.Encode("hello world")
	assert.Equal(t, a, b)
}

func TestEncodeDiffersByModelID(t *testing.T) {
	a := NewHashEncoder("model-a", 16).Encode("same text")
	b := NewHashEncoder("model-b", 16).Encode("same text")
	assert.NotEqual(t, a, b)
}

func TestEncodeDimension(t *testing.T) {
	e := NewHashEncoder("m", 48)
	assert.Equal(t, 48, e.Dimension())
	assert.Len(t, e.Encode("x"), 48)
}

func TestEncodeDiffersByText(t *testing.T) {
	e := NewHashEncoder("m", 16)
	assert.NotEqual(t, e.Encode("a"), e.Encode("b"))
}
