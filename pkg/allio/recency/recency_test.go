package recency_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/watchcask/allio/pkg/allio/recency"
)

func TestAnyAcceptsAnyAge(t *testing.T) {
	assert.True(t, recency.Any.IsSatisfiedBy(0))
	assert.True(t, recency.Any.IsSatisfiedBy(1000*time.Second))
}

func TestCurrentRejectsAnyAge(t *testing.T) {
	assert.False(t, recency.Current.IsSatisfiedBy(0))
	assert.False(t, recency.Current.IsSatisfiedBy(time.Second))
}

func TestMaxAgeChecksDuration(t *testing.T) {
	r := recency.MaxAgeMS(100)
	assert.True(t, r.IsSatisfiedBy(50*time.Millisecond))
	assert.True(t, r.IsSatisfiedBy(100*time.Millisecond))
	assert.False(t, r.IsSatisfiedBy(101*time.Millisecond))
}

func TestRequiresFetch(t *testing.T) {
	assert.False(t, recency.Any.RequiresFetch())
	assert.True(t, recency.Current.RequiresFetch())
	assert.False(t, recency.MaxAgeMS(100).RequiresFetch())
}

func TestMightRequireFetch(t *testing.T) {
	assert.False(t, recency.Any.MightRequireFetch())
	assert.True(t, recency.Current.MightRequireFetch())
	assert.True(t, recency.MaxAgeMS(100).MightRequireFetch())
}
