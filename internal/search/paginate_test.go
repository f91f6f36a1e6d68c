package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageCoercion(t *testing.T) {
	cases := map[string]int{
		"-5":  1,
		"0":   1,
		"abc": 1,
		"":    1,
		"3.7": 1,
		"2":   2,
		" 4 ": 4,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "input %q", raw)
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(12, 5))
	assert.Equal(t, 1, PageCount(5, 5))
	assert.Equal(t, 2, PageCount(6, 5))
	assert.Equal(t, 1, PageCount(0, 5))
	assert.Equal(t, 1, PageCount(10, 0))
}

func TestClampPageLandsOnLastPage(t *testing.T) {
	assert.Equal(t, 3, ClampPage(4, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(7, 1))
}
