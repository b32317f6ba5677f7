package looseversion

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCompare checks numeric, textual and prefix ordering of segments.
func TestCompare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"6.7", "6.6", 1},
		{"5.15", "5.9", 1},
		{"6.10", "6.6", 1},
		{"6.6", "6.6", 0},
		{"6.06", "6.6", 0},
		{"23.08", "22.08", 1},
		{"6", "6.0", -1},
		{"6.0", "6", 1},
		{"", "1", -1},
		{"master", "stable", -1},
		{"23.08", "master", -1},
		{"beta", "1", 1},
		{"5.15-23.08", "5.15-22.08", 1},
		{"5.15-23.08", "5.15", 1},
		{"99999999999999999999999", "99999999999999999999998", 1},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.want, Compare(tc.a, tc.b), "Compare(%q, %q)", tc.a, tc.b)
		require.Equalf(t, -tc.want, Compare(tc.b, tc.a), "Compare(%q, %q)", tc.b, tc.a)
	}
}

// TestCompare_Transitive sorts a mixed list and verifies every adjacent pair is ordered.
func TestCompare_Transitive(t *testing.T) {
	t.Parallel()

	versions := []string{"6.10", "master", "5.15-23.08", "6.6", "6", "23.08", "6.5", "stable", "5.9", "6.6.1"}
	slices.SortFunc(versions, Compare)

	require.Equal(t,
		[]string{"5.9", "5.15-23.08", "6", "6.5", "6.6", "6.6.1", "6.10", "23.08", "master", "stable"},
		versions)

	for i := range versions {
		for j := i + 1; j < len(versions); j++ {
			require.LessOrEqual(t, Compare(versions[i], versions[j]), 0)
		}
	}
}

// TestMax verifies numeric selection, tie handling and the empty case.
func TestMax(t *testing.T) {
	t.Parallel()

	latest, ok := Max("6.5", "6.6", "6.10")
	require.True(t, ok)
	require.Equal(t, "6.10", latest)

	latest, ok = Max("6.6", "6.06")
	require.True(t, ok)
	require.Equal(t, "6.6", latest)

	_, ok = Max()
	require.False(t, ok)
}

// TestCompare_MixedSegments compares segments holding digits and text as plain strings.
func TestCompare_MixedSegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, Compare("5.15-9.08", "5.15-10.08"))
	require.Equal(t, -1, Compare("5.15-22.08", "5.15-23.08"))
	require.Equal(t, -1, Compare("23.08", "beta"))
}
