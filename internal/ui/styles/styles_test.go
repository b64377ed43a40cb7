package styles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// restoreThemed resets the mutable theme colors after a test.
func restoreThemed(t *testing.T) {
	t.Helper()
	highlight := BorderHighlightFocusColor
	info := ToastBorderInfoColor
	muted := TextMutedColor
	border := BorderDefaultColor
	errColor := StatusErrorColor
	success := StatusSuccessColor
	t.Cleanup(func() {
		BorderHighlightFocusColor = highlight
		ToastBorderInfoColor = info
		TextMutedColor = muted
		BorderDefaultColor = border
		StatusErrorColor = errColor
		StatusSuccessColor = success
	})
}

func TestApplyTheme_Highlight(t *testing.T) {
	restoreThemed(t)

	ApplyTheme("#FF0000", "", "", "")

	require.Equal(t, "#FF0000", BorderHighlightFocusColor.Dark)
	require.Equal(t, "#FF0000", BorderHighlightFocusColor.Light)
	require.Equal(t, "#FF0000", ToastBorderInfoColor.Dark)
}

func TestApplyTheme_Subtle(t *testing.T) {
	restoreThemed(t)

	ApplyTheme("", "#112233", "", "")

	require.Equal(t, "#112233", TextMutedColor.Dark)
	require.Equal(t, "#112233", BorderDefaultColor.Dark)
}

func TestApplyTheme_ErrorAndSuccess(t *testing.T) {
	restoreThemed(t)

	ApplyTheme("", "", "#AA0000", "#00AA00")

	require.Equal(t, "#AA0000", StatusErrorColor.Dark)
	require.Equal(t, "#00AA00", StatusSuccessColor.Dark)
}

func TestApplyTheme_EmptyKeepsDefaults(t *testing.T) {
	restoreThemed(t)

	before := BorderHighlightFocusColor
	ApplyTheme("", "", "", "")

	require.Equal(t, before, BorderHighlightFocusColor, "empty values must not alter the theme")
}
