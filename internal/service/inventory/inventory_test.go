package inventory

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgivc/sitestore/internal/common"
	"github.com/jgivc/sitestore/internal/registry"
	"github.com/jgivc/sitestore/internal/service/store"
	"github.com/jgivc/sitestore/internal/storage/layout"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestServices() (afero.Fs, *store.Service, *Service) {
	fs := afero.NewMemMapFs()
	l := layout.New("/data/files", "/data/sites",
		map[string]string{"documents": "documents", "data": "data", "other": "other"},
		map[string]string{"reports": "reports", "graphs": "graphs", "metadata": "metadata"})
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	reg := registry.New(fs, l, nil, log)

	return fs, store.NewService(fs, l, reg, log), NewService(fs, l, reg, log)
}

func TestFiles(t *testing.T) {
	fs, st, inv := newTestServices()

	doc1, err := st.StoreFile("example.com", "https://example.com/doc1.pdf", []byte("11"), "documents", nil)
	require.NoError(t, err)
	doc2, err := st.StoreFile("example.com", "https://example.com/doc2.pdf", []byte("22"), "documents", nil)
	require.NoError(t, err)
	csv, err := st.StoreFile("example.com", "https://example.com/table.csv", []byte("33"), "data", nil)
	require.NoError(t, err)

	// Distinct modification times for a deterministic order.
	now := time.Now()
	require.NoError(t, fs.Chtimes(doc1, now, now.Add(-3*time.Hour)))
	require.NoError(t, fs.Chtimes(csv, now, now.Add(-2*time.Hour)))
	require.NoError(t, fs.Chtimes(doc2, now, now.Add(-1*time.Hour)))

	all, err := inv.Files("example.com", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "doc2.pdf", all[0].Name)
	require.Equal(t, "table.csv", all[1].Name)
	require.Equal(t, "doc1.pdf", all[2].Name)
	require.Equal(t, ".pdf", all[0].Ext)
	require.Equal(t, filepath.Join("documents", "doc2.pdf"), all[0].RelativePath)

	docs, err := inv.Files("example.com", "documents")
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestFilesUnknownDomain(t *testing.T) {
	_, _, inv := newTestServices()

	files, err := inv.Files("nosuch.com", "")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestFilesMetadataHydration(t *testing.T) {
	_, st, inv := newTestServices()

	_, err := st.StoreFile("example.com", "https://example.com/a.pdf", []byte("AAA"),
		"documents", map[string]any{"source": "crawler"})
	require.NoError(t, err)

	files, err := inv.Files("example.com", "documents")
	require.NoError(t, err)
	require.Len(t, files, 1)

	// The sidecar itself is not listed, its content rides on the artifact.
	require.Equal(t, "a.pdf", files[0].Name)
	require.NotNil(t, files[0].Metadata)
	require.Equal(t, "crawler", files[0].Metadata["source"])
	require.Equal(t, "https://example.com/a.pdf", files[0].Metadata["original_url"])
}

func TestOutputs(t *testing.T) {
	_, st, inv := newTestServices()

	_, err := st.StoreOutput("example.com", "summary", store.JSON(map[string]any{"a": 1}), "reports", ".json")
	require.NoError(t, err)
	_, err = st.StoreOutput("example.com", "links", store.Text("a -> b"), "graphs", ".txt")
	require.NoError(t, err)

	all, err := inv.Outputs("example.com", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	graphs, err := inv.Outputs("example.com", "graphs")
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	require.Equal(t, "links.txt", graphs[0].Name)
	require.Equal(t, "graphs", graphs[0].Category)
}

func TestOutputsExcludeSiteSidecar(t *testing.T) {
	_, st, inv := newTestServices()

	// Initializes the site and writes its site_info.json sidecar.
	_, err := st.FilesPath("example.com", "documents", true)
	require.NoError(t, err)

	outputs, err := inv.Outputs("example.com", "")
	require.NoError(t, err)
	require.Empty(t, outputs)
}

func TestSiteStats(t *testing.T) {
	_, st, inv := newTestServices()

	_, err := st.StoreFile("example.com", "https://example.com/a.bin", []byte("1234567890123"), "data", nil)
	require.NoError(t, err)
	_, err = st.StoreOutput("example.com", "summary", store.Text("ok"), "reports", ".txt")
	require.NoError(t, err)

	stats, err := inv.SiteStats("https://example.com")
	require.NoError(t, err)
	require.Equal(t, "example.com", stats.Domain)
	require.Equal(t, 1, stats.FilesCount)
	require.EqualValues(t, 13, stats.TotalFileSize)
	require.Equal(t, 1, stats.AnalysisCount)
	require.EqualValues(t, 2, stats.TotalAnalysisSize)
	require.False(t, stats.CreatedAt.IsZero())
}

func TestSiteStatsCollisionScenario(t *testing.T) {
	fs, st, inv := newTestServices()

	first, err := st.StoreFile("https://example.com", "https://example.com/a.pdf", []byte("AAA"), "documents", nil)
	require.NoError(t, err)
	second, err := st.StoreFile("https://example.com", "https://example.com/a.pdf", []byte("BBB"), "documents", nil)
	require.NoError(t, err)

	require.Equal(t, "a.pdf", filepath.Base(first))
	require.Equal(t, "a_1.pdf", filepath.Base(second))

	firstContent, err := afero.ReadFile(fs, first)
	require.NoError(t, err)
	require.Equal(t, []byte("AAA"), firstContent)

	stats, err := inv.SiteStats("example.com")
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesCount)
	require.EqualValues(t, 6, stats.TotalFileSize)
}

func TestSiteStatsUnknownDomain(t *testing.T) {
	_, _, inv := newTestServices()

	_, err := inv.SiteStats("nosuch.com")
	require.ErrorIs(t, err, common.ErrStorageNotFound)
}

func TestGlobalStats(t *testing.T) {
	_, st, inv := newTestServices()

	_, err := st.StoreFile("one.com", "https://one.com/a.txt", []byte("123"), "documents", nil)
	require.NoError(t, err)
	_, err = st.StoreFile("two.com", "https://two.com/b.txt", []byte("4567"), "data", nil)
	require.NoError(t, err)

	global, err := inv.GlobalStats()
	require.NoError(t, err)
	require.Equal(t, 2, global.TotalSites)
	require.Equal(t, 2, global.TotalFiles)
	require.EqualValues(t, 7, global.TotalSize)
	require.Len(t, global.Sites, 2)
}

func TestGlobalStatsEmptyRoot(t *testing.T) {
	_, _, inv := newTestServices()

	global, err := inv.GlobalStats()
	require.NoError(t, err)
	require.Zero(t, global.TotalSites)
	require.Empty(t, global.Sites)
}

func TestCleanup(t *testing.T) {
	fs, st, inv := newTestServices()

	old, err := st.StoreFile("example.com", "https://example.com/old.log", []byte("old data"),
		"data", map[string]any{"source": "crawler"})
	require.NoError(t, err)
	fresh, err := st.StoreFile("example.com", "https://example.com/fresh.log", []byte("fresh"), "data", nil)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, fs.Chtimes(old, now, now.AddDate(0, 0, -10)))

	result, err := inv.Cleanup("example.com", 5)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesRemoved)
	require.EqualValues(t, len("old data"), result.BytesFreed)

	exists, err := afero.Exists(fs, old)
	require.NoError(t, err)
	require.False(t, exists)

	// The sidecar goes with its file.
	exists, err = afero.Exists(fs, old+store.MetaSuffix)
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = afero.Exists(fs, fresh)
	require.NoError(t, err)
	require.True(t, exists)

	// No age filter removes the rest.
	result, err = inv.Cleanup("example.com", 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesRemoved)

	exists, err = afero.Exists(fs, fresh)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCleanupUnknownDomain(t *testing.T) {
	_, _, inv := newTestServices()

	result, err := inv.Cleanup("nosuch.com", 0)
	require.NoError(t, err)
	require.Zero(t, result.FilesRemoved)
	require.Zero(t, result.BytesFreed)
}
