package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLogBuffer_AppendBelowCapacity(t *testing.T) {
	b := NewLogBuffer(5)
	b.Append("one")
	b.Append("two")
	b.Append("three")

	require.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"one", "two", "three"}, b.Snapshot())
}

func TestLogBuffer_EvictsOldestWhenFull(t *testing.T) {
	b := NewLogBuffer(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		b.Append(line)
	}

	require.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"c", "d", "e"}, b.Snapshot(), "oldest lines should be evicted first")
}

func TestLogBuffer_CapacityClamped(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{name: "zero clamps to one", capacity: 0, expected: 1},
		{name: "negative clamps to one", capacity: -7, expected: 1},
		{name: "positive kept", capacity: 100, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLogBuffer(tt.capacity)
			assert.Equal(t, tt.expected, b.Cap())
		})
	}
}

func TestLogBuffer_Clear(t *testing.T) {
	b := NewLogBuffer(4)
	b.Append("x")
	b.Append("y")
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
	assert.Equal(t, 4, b.Cap(), "capacity should survive a clear")

	b.Append("z")
	assert.Equal(t, []string{"z"}, b.Snapshot(), "buffer should be usable after clear")
}

// TestLogBuffer_RetentionProperty checks that after any sequence of appends
// the buffer holds exactly the most recent min(n, cap) lines in order.
func TestLogBuffer_RetentionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		n := rapid.IntRange(0, 200).Draw(t, "appends")

		b := NewLogBuffer(capacity)
		lines := make([]string, n)
		for i := range n {
			lines[i] = fmt.Sprintf("line-%d", i)
			b.Append(lines[i])
		}

		expected := lines
		if len(expected) > capacity {
			expected = expected[len(expected)-capacity:]
		}

		if b.Len() != len(expected) {
			t.Fatalf("Len() = %d, want %d", b.Len(), len(expected))
		}
		got := b.Snapshot()
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("Snapshot()[%d] = %q, want %q", i, got[i], expected[i])
			}
		}
	})
}
