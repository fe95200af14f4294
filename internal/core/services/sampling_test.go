package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleEvenly(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	tests := []struct {
		name string
		k    int
		want []int
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"one", 1, []int{0}},
		{"half", 5, []int{0, 2, 4, 6, 8}},
		{"three", 3, []int{0, 3, 6}},
		{"all", 10, items},
		{"more than available", 25, items},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleEvenly(items, tt.k))
		})
	}
}

func TestSampleEvenly_ReturnsCopy(t *testing.T) {
	items := []string{"a", "b"}

	out := SampleEvenly(items, 5)
	out[0] = "changed"

	assert.Equal(t, "a", items[0])
	assert.Nil(t, SampleEvenly([]string{}, 3))
}
