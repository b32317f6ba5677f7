package flatpak

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseRows splits tab-separated lines and skips blanks and the empty-result notice.
func TestParseRows(t *testing.T) {
	t.Parallel()

	rows, err := ParseRows("org.kde.Platform\t6.6\r\n\norg.kde.Sdk\t6.6\norg.kde.Platform\t5.15-23.08\n")
	require.NoError(t, err)
	require.Equal(t, []Row{
		{Application: "org.kde.Platform", Branch: "6.6"},
		{Application: "org.kde.Sdk", Branch: "6.6"},
		{Application: "org.kde.Platform", Branch: "5.15-23.08"},
	}, rows)

	rows, err = ParseRows("No matches found\n")
	require.NoError(t, err)
	require.Empty(t, rows)

	rows, err = ParseRows("")
	require.NoError(t, err)
	require.Empty(t, rows)
}

// TestParseRows_Malformed rejects lines without exactly one tab.
func TestParseRows_Malformed(t *testing.T) {
	t.Parallel()

	for _, output := range []string{
		"org.kde.Platform 6.6\n",
		"org.kde.Platform\t6.6\tflathub\n",
		"org.kde.Platform\t6.6\nbroken\n",
	} {
		_, err := ParseRows(output)
		require.ErrorIs(t, err, ErrMalformedRow, output)
	}
}

// TestBranchesOf keeps exact identifier matches in output order.
func TestBranchesOf(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Application: "org.kde.Platform", Branch: "6.5"},
		{Application: "org.kde.Platform.Locale", Branch: "6.9"},
		{Application: "org.kde.Platform", Branch: "6.6"},
		{Application: "org.kde.platform", Branch: "7.0"},
	}

	require.Equal(t, []string{"6.5", "6.6"}, BranchesOf(rows, "org.kde.Platform"))
	require.Empty(t, BranchesOf(rows, "org.gnome.Platform"))
}
