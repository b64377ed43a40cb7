package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(80)
	require.NoError(t, err, "unexpected error")
	require.NotNil(t, r, "expected non-nil renderer")
	require.Equal(t, 80, r.Width())
}

func TestRenderer_Width(t *testing.T) {
	tests := []int{40, 80, 120}
	for _, w := range tests {
		r, err := New(w)
		require.NoError(t, err, "New(%d) error", w)
		require.Equal(t, w, r.Width())
	}
}

func TestRenderer_Render_Heading(t *testing.T) {
	r, err := New(80)
	require.NoError(t, err, "New error")

	result, err := r.Render("# Growth phases\n\nContent")
	require.NoError(t, err, "Render error")

	require.Contains(t, result, "Growth phases", "expected result to contain heading")
	require.Contains(t, result, "Content", "expected result to contain body")
}

func TestRenderer_Render_List(t *testing.T) {
	r, err := New(80)
	require.NoError(t, err, "New error")

	result, err := r.Render("- colonisation\n- growing\n- cake")
	require.NoError(t, err, "Render error")

	require.Contains(t, result, "colonisation")
	require.Contains(t, result, "growing")
	require.Contains(t, result, "cake")
}

func TestRenderer_Render_Bold(t *testing.T) {
	r, err := New(80)
	require.NoError(t, err, "New error")

	result, err := r.Render("Values apply **immediately** while confirming.")
	require.NoError(t, err, "Render error")

	require.Contains(t, result, "immediately")
}

func TestRenderer_Render_Empty(t *testing.T) {
	r, err := New(80)
	require.NoError(t, err, "New error")

	_, err = r.Render("")
	require.NoError(t, err, "empty input should render cleanly")
}
