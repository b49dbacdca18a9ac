package layout

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	SideFiles Side = iota
	SideAnalysis

	DefaultFilesCategory    = "other"
	DefaultAnalysisCategory = "metadata"
)

// Side selects one of the two storage roots.
type Side int

func (s Side) String() string {
	return [...]string{"files", "analysis"}[s]
}

// Layout is the immutable description of the two storage roots and the
// category buckets under each of them. Category names map to physical
// subdirectory names; unknown categories fall back to the side's default
// bucket.
type Layout struct {
	filesRoot          string
	analysisRoot       string
	filesCategories    map[string]string
	analysisCategories map[string]string
}

func New(filesRoot, analysisRoot string, filesCategories, analysisCategories map[string]string) *Layout {
	return &Layout{
		filesRoot:          filesRoot,
		analysisRoot:       analysisRoot,
		filesCategories:    copyMap(filesCategories),
		analysisCategories: copyMap(analysisCategories),
	}
}

func (l *Layout) FilesRoot() string {
	return l.filesRoot
}

func (l *Layout) AnalysisRoot() string {
	return l.analysisRoot
}

// SitePath returns the per-domain directory on the given side.
func (l *Layout) SitePath(side Side, domain string) string {
	if side == SideFiles {
		return filepath.Join(l.filesRoot, domain)
	}

	return filepath.Join(l.analysisRoot, domain)
}

// CategoryDir maps a category name to its subdirectory name. A miss
// resolves to the side's default category. Never fails.
func (l *Layout) CategoryDir(side Side, category string) string {
	m, def := l.side(side)

	if dir, exists := m[category]; exists {
		return dir
	}

	if dir, exists := m[def]; exists {
		return dir
	}

	return def
}

// HasCategory reports whether the category is configured on the side.
func (l *Layout) HasCategory(side Side, category string) bool {
	m, _ := l.side(side)
	_, exists := m[category]

	return exists
}

// CategoryDirs returns all configured subdirectory names for the side.
func (l *Layout) CategoryDirs(side Side) []string {
	m, _ := l.side(side)

	dirs := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, dir := range m {
		if _, exists := seen[dir]; exists {
			continue
		}

		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	return dirs
}

// EnsureRoots creates both root directories. Existing directories are not
// an error. A failure here is fatal for the caller, nothing works without
// the roots.
func (l *Layout) EnsureRoots(fs afero.Fs) error {
	for _, root := range []string{l.filesRoot, l.analysisRoot} {
		if err := fs.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("cannot create storage root %s: %w", root, err)
		}
	}

	return nil
}

func (l *Layout) side(side Side) (map[string]string, string) {
	if side == SideFiles {
		return l.filesCategories, DefaultFilesCategory
	}

	return l.analysisCategories, DefaultAnalysisCategory
}

func copyMap(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return cp
}
