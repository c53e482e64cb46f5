package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactList(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil", nil, nil},
		{"broker list with spaces", []string{" a:9092", "b:9092 "}, []string{"a:9092", "b:9092"}},
		{"repeated broker keeps first position", []string{"b:9092", "a:9092", "b:9092"}, []string{"b:9092", "a:9092"}},
		{"blank env value reads as unset", []string{"", "  "}, nil},
		{"trailing separator", []string{"a:9092", "  "}, []string{"a:9092"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CompactList(tc.input))
		})
	}
}
