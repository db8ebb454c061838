package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedBoostBounds(t *testing.T) {
	src := NewSeededSource(42)
	for range 1000 {
		b := ExpectedBoost(20, src)
		assert.GreaterOrEqual(t, b, 5.0)
		assert.LessOrEqual(t, b, 19.0)
	}
}

func TestExpectedBoostHeadroom(t *testing.T) {
	assert.Equal(t, 0.0, ExpectedBoost(100, fixedSource(0)))
	assert.Equal(t, 0.0, ExpectedBoost(104, fixedSource(0)))
	assert.Equal(t, 3.3, ExpectedBoost(96.7, fixedSource(10)))
	assert.Equal(t, 5.0, ExpectedBoost(50, fixedSource(0)))
	assert.Equal(t, 19.0, ExpectedBoost(50, fixedSource(14)))
}

func TestSeededSourceDeterministic(t *testing.T) {
	a, b := NewSeededSource(7), NewSeededSource(7)
	for range 50 {
		assert.Equal(t, ExpectedBoost(10, a), ExpectedBoost(10, b))
	}
}
