package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/jgivc/sitestore/internal/common"
	"github.com/jgivc/sitestore/internal/entity"
	"github.com/jgivc/sitestore/internal/storage/layout"
	"github.com/spf13/afero"
)

// SiteInfoFileName is the per-domain sidecar under the metadata category.
// It is bookkeeping, not an analysis output, and listings skip it.
const SiteInfoFileName = "site_info.json"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// CounterSink mirrors per-domain write counters to an external store.
// Strictly best-effort, a failing sink never affects the store operation.
type CounterSink interface {
	Record(ctx context.Context, domain string, size int64) error
}

// Registry maps domain keys to site records. Records are created lazily,
// backed by a JSON sidecar under the domain's analysis tree. The in-memory
// state stays authoritative for the process lifetime; sidecar writes are
// best-effort bookkeeping.
type Registry struct {
	fs       afero.Fs
	layout   *layout.Layout
	counters CounterSink
	log      *slog.Logger

	mu    sync.Mutex
	sites map[string]*siteEntry
}

// siteEntry serializes all access to one domain's record. Unrelated
// domains never contend on it.
type siteEntry struct {
	mu   sync.Mutex
	site *entity.Site
}

func New(fs afero.Fs, l *layout.Layout, counters CounterSink, log *slog.Logger) *Registry {
	return &Registry{
		fs:       fs,
		layout:   l,
		counters: counters,
		log:      log.With(slog.String("item", "SiteRegistry")),
		sites:    make(map[string]*siteEntry),
	}
}

// GetOrCreate returns the record for a domain, provisioning its directory
// trees on first access: both per-domain roots plus every configured
// category subdirectory on both sides. Re-initialization of a known domain
// is a no-op that returns the existing record.
func (r *Registry) GetOrCreate(domain string) (*entity.Site, error) {
	e := r.entry(domain)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.site != nil {
		return e.site.Clone(), nil
	}

	filesPath := r.layout.SitePath(layout.SideFiles, domain)
	analysisPath := r.layout.SitePath(layout.SideAnalysis, domain)

	for _, side := range []layout.Side{layout.SideFiles, layout.SideAnalysis} {
		sitePath := r.layout.SitePath(side, domain)
		if err := r.fs.MkdirAll(sitePath, dirPerm); err != nil {
			return nil, fmt.Errorf("cannot create %s directory for %s: %w", side, domain, err)
		}

		for _, dir := range r.layout.CategoryDirs(side) {
			if err := r.fs.MkdirAll(filepath.Join(sitePath, dir), dirPerm); err != nil {
				return nil, fmt.Errorf("cannot create %s subdirectory %s for %s: %w", side, dir, domain, err)
			}
		}
	}

	now := time.Now()
	site := &entity.Site{
		Domain:       domain,
		FilesPath:    filesPath,
		AnalysisPath: analysisPath,
		CreatedAt:    now,
		LastAccessed: now,
		Metadata:     make(map[string]any),
	}

	r.saveSidecar(site)
	e.site = site

	r.log.Info("Initialized site storage",
		slog.String("domain", domain),
		slog.String("files_path", filesPath),
		slog.String("analysis_path", analysisPath))

	return site.Clone(), nil
}

// Lookup returns the record for a domain without provisioning anything.
// If the domain is unknown in memory but either of its directories exists
// on disk, the record is reconstructed from the sidecar, or synthesized
// with fresh timestamps when the directories were created out-of-band.
// Returns common.ErrStorageNotFound when there is no trace of the domain.
func (r *Registry) Lookup(domain string) (*entity.Site, error) {
	e := r.entry(domain)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.site != nil {
		return e.site.Clone(), nil
	}

	filesPath := r.layout.SitePath(layout.SideFiles, domain)
	analysisPath := r.layout.SitePath(layout.SideAnalysis, domain)

	filesExists, _ := afero.DirExists(r.fs, filesPath)
	analysisExists, _ := afero.DirExists(r.fs, analysisPath)
	if !filesExists && !analysisExists {
		return nil, fmt.Errorf("no storage for domain %s: %w", domain, common.ErrStorageNotFound)
	}

	e.site = r.loadSidecar(domain, filesPath, analysisPath)

	return e.site.Clone(), nil
}

// RecordWrite accounts one stored artifact. The domain must already be in
// memory (GetOrCreate or Lookup ran first); a miss is a programming error
// on the caller's side and is only logged.
func (r *Registry) RecordWrite(domain string, size int64) {
	r.mu.Lock()
	e, exists := r.sites[domain]
	r.mu.Unlock()

	if !exists {
		r.log.Error("Record write for unknown domain", slog.String("domain", domain))

		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.site == nil {
		r.log.Error("Record write for uninitialized domain", slog.String("domain", domain))

		return
	}

	e.site.TotalFiles++
	e.site.TotalSizeBytes += size
	e.site.LastAccessed = time.Now()

	r.saveSidecar(e.site)

	if r.counters != nil {
		if err := r.counters.Record(context.Background(), domain, size); err != nil {
			r.log.Error("Cannot mirror counters", slog.String("domain", domain), slog.Any("error", err))
		}
	}
}

func (r *Registry) entry(domain string) *siteEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sites[domain]
	if !exists {
		e = &siteEntry{}
		r.sites[domain] = e
	}

	return e
}

func (r *Registry) sidecarPath(analysisPath string) string {
	return filepath.Join(analysisPath, layout.DefaultAnalysisCategory, SiteInfoFileName)
}

// saveSidecar persists the record next to the site's analysis outputs.
// Failures are logged and swallowed, the in-memory record stays the source
// of truth.
func (r *Registry) saveSidecar(site *entity.Site) {
	path := r.sidecarPath(site.AnalysisPath)

	data, err := json.MarshalIndent(site, "", "  ")
	if err != nil {
		r.log.Error("Cannot marshal site metadata", slog.String("domain", site.Domain), slog.Any("error", err))

		return
	}

	if err := r.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		r.log.Error("Cannot create metadata directory", slog.String("domain", site.Domain), slog.Any("error", err))

		return
	}

	if err := afero.WriteFile(r.fs, path, data, filePerm); err != nil {
		r.log.Error("Cannot save site metadata", slog.String("domain", site.Domain), slog.Any("error", err))
	}
}

// loadSidecar never fails: a missing or malformed sidecar yields a minimal
// record so directories created out-of-band stay usable.
func (r *Registry) loadSidecar(domain, filesPath, analysisPath string) *entity.Site {
	now := time.Now()
	site := &entity.Site{
		Domain:       domain,
		FilesPath:    filesPath,
		AnalysisPath: analysisPath,
		CreatedAt:    now,
		LastAccessed: now,
		Metadata:     make(map[string]any),
	}

	path := r.sidecarPath(analysisPath)

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return site
	}

	if err := json.Unmarshal(data, site); err != nil {
		r.log.Warn("Cannot parse site metadata", slog.String("path", path), slog.Any("error", err))

		return site
	}

	if site.Metadata == nil {
		site.Metadata = make(map[string]any)
	}

	return site
}
