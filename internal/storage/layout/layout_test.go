package layout

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestLayout() *Layout {
	return New("/data/files", "/data/sites",
		map[string]string{"documents": "documents", "other": "other"},
		map[string]string{"reports": "reports", "metadata": "metadata"})
}

func TestCategoryDir(t *testing.T) {
	l := newTestLayout()

	testCases := []struct {
		name     string
		side     Side
		category string
		expected string
	}{
		{name: "known files category", side: SideFiles, category: "documents", expected: "documents"},
		{name: "unknown files category", side: SideFiles, category: "video", expected: "other"},
		{name: "empty files category", side: SideFiles, category: "", expected: "other"},
		{name: "known analysis category", side: SideAnalysis, category: "reports", expected: "reports"},
		{name: "unknown analysis category", side: SideAnalysis, category: "junk", expected: "metadata"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, l.CategoryDir(tc.side, tc.category))
		})
	}
}

func TestHasCategory(t *testing.T) {
	l := newTestLayout()

	require.True(t, l.HasCategory(SideFiles, "documents"))
	require.False(t, l.HasCategory(SideFiles, "video"))
	require.False(t, l.HasCategory(SideAnalysis, "documents"))
}

func TestCategoryDirs(t *testing.T) {
	l := newTestLayout()

	require.ElementsMatch(t, []string{"documents", "other"}, l.CategoryDirs(SideFiles))
	require.ElementsMatch(t, []string{"reports", "metadata"}, l.CategoryDirs(SideAnalysis))
}

func TestSitePath(t *testing.T) {
	l := newTestLayout()

	require.Equal(t, filepath.Join("/data/files", "example.com"), l.SitePath(SideFiles, "example.com"))
	require.Equal(t, filepath.Join("/data/sites", "example.com"), l.SitePath(SideAnalysis, "example.com"))
}

func TestEnsureRoots(t *testing.T) {
	l := newTestLayout()
	fs := afero.NewMemMapFs()

	require.NoError(t, l.EnsureRoots(fs))

	for _, root := range []string{"/data/files", "/data/sites"} {
		exists, err := afero.DirExists(fs, root)
		require.NoError(t, err)
		require.True(t, exists)
	}

	// Existing roots are not an error.
	require.NoError(t, l.EnsureRoots(fs))
}
