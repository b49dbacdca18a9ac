package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jgivc/sitestore/internal/common"
	"github.com/jgivc/sitestore/internal/domainkey"
	"github.com/jgivc/sitestore/internal/entity"
	"github.com/jgivc/sitestore/internal/registry"
	"github.com/jgivc/sitestore/internal/service/store"
	"github.com/jgivc/sitestore/internal/storage/layout"
	"github.com/jgivc/sitestore/internal/util"
	"github.com/spf13/afero"
)

type SiteRegistry interface {
	Lookup(domain string) (*entity.Site, error)
}

// Service enumerates stored artifacts and computes statistics. The
// filesystem is the source of truth: every call rescans the tree, the
// persisted counters are never trusted here.
type Service struct {
	fs     afero.Fs
	layout *layout.Layout
	reg    SiteRegistry
	log    *slog.Logger
}

func NewService(fs afero.Fs, l *layout.Layout, reg SiteRegistry, log *slog.Logger) *Service {
	return &Service{
		fs:     fs,
		layout: l,
		reg:    reg,
		log:    log.With(slog.String("item", "InventoryService")),
	}
}

// Files lists downloaded files for a domain, newest first. An empty or
// unknown category scans every configured bucket. Sidecar files are
// excluded from the listing; their parsed content is attached to the
// matching artifact instead. An unknown domain yields an empty list, not
// an error.
func (s *Service) Files(urlOrDomain, category string) ([]*entity.Artifact, error) {
	site, err := s.site(urlOrDomain)
	if err != nil {
		if errors.Is(err, common.ErrStorageNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var artifacts []*entity.Artifact
	for _, dir := range s.scanDirs(layout.SideFiles, category) {
		artifacts = append(artifacts, s.scan(filepath.Join(site.FilesPath, dir), site.FilesPath, dir, true)...)
	}

	sortNewestFirst(artifacts)

	return artifacts, nil
}

// Outputs lists analysis outputs for a domain, newest first. Each entry
// carries the category bucket it was found under.
func (s *Service) Outputs(urlOrDomain, category string) ([]*entity.Artifact, error) {
	site, err := s.site(urlOrDomain)
	if err != nil {
		if errors.Is(err, common.ErrStorageNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var artifacts []*entity.Artifact
	for _, dir := range s.scanDirs(layout.SideAnalysis, category) {
		artifacts = append(artifacts, s.scan(filepath.Join(site.AnalysisPath, dir), site.AnalysisPath, dir, false)...)
	}

	sortNewestFirst(artifacts)

	return artifacts, nil
}

// SiteStats recomputes a domain's statistics from the filesystem. Returns
// common.ErrStorageNotFound for a domain this layer has never seen.
func (s *Service) SiteStats(urlOrDomain string) (*entity.SiteStats, error) {
	site, err := s.site(urlOrDomain)
	if err != nil {
		return nil, err
	}

	files, err := s.Files(site.Domain, "")
	if err != nil {
		return nil, err
	}

	outputs, err := s.Outputs(site.Domain, "")
	if err != nil {
		return nil, err
	}

	stats := &entity.SiteStats{
		Domain:        site.Domain,
		FilesCount:    len(files),
		AnalysisCount: len(outputs),
		CreatedAt:     site.CreatedAt,
		LastAccessed:  site.LastAccessed,
		FilesPath:     site.FilesPath,
		AnalysisPath:  site.AnalysisPath,
	}

	for _, f := range files {
		stats.TotalFileSize += f.Size
	}
	for _, o := range outputs {
		stats.TotalAnalysisSize += o.Size
	}

	return stats, nil
}

// GlobalStats aggregates statistics over every domain directory under the
// files root. A site that fails to compute is logged and skipped.
func (s *Service) GlobalStats() (*entity.GlobalStats, error) {
	global := &entity.GlobalStats{}

	entries, err := afero.ReadDir(s.fs, s.layout.FilesRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return global, nil
		}

		return nil, fmt.Errorf("cannot read files root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		stats, err := s.SiteStats(entry.Name())
		if err != nil {
			s.log.Warn("Cannot get site statistics", slog.String("domain", entry.Name()), slog.Any("error", err))

			continue
		}

		global.Sites = append(global.Sites, stats)
		global.TotalFiles += stats.FilesCount
		global.TotalSize += stats.TotalFileSize
	}

	global.TotalSites = len(global.Sites)

	return global, nil
}

// Cleanup removes files (and their sidecars) from a domain's files tree.
// With olderThanDays > 0 only files modified before the cutoff go away.
// Per-file failures are logged and skipped. An unknown domain is a zero
// result.
func (s *Service) Cleanup(urlOrDomain string, olderThanDays int) (*entity.CleanupResult, error) {
	result := &entity.CleanupResult{}

	site, err := s.site(urlOrDomain)
	if err != nil {
		if errors.Is(err, common.ErrStorageNotFound) {
			return result, nil
		}

		return nil, err
	}

	var cutoff time.Time
	if olderThanDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -olderThanDays)
	}

	err = afero.Walk(s.fs, site.FilesPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Sidecars removed together with their file disappear mid-walk.
			if !os.IsNotExist(err) {
				s.log.Warn("Cannot visit path", slog.String("path", path), slog.Any("error", err))
			}

			return nil
		}

		if info.IsDir() || strings.HasSuffix(info.Name(), store.MetaSuffix) {
			return nil
		}

		if !cutoff.IsZero() && info.ModTime().After(cutoff) {
			return nil
		}

		size := info.Size()
		if err := s.fs.Remove(path); err != nil {
			s.log.Warn("Cannot remove file", slog.String("path", path), slog.Any("error", err))

			return nil
		}

		result.FilesRemoved++
		result.BytesFreed += size

		metaPath := path + store.MetaSuffix
		if exists, _ := afero.Exists(s.fs, metaPath); exists {
			if err := s.fs.Remove(metaPath); err != nil {
				s.log.Warn("Cannot remove file metadata", slog.String("path", metaPath), slog.Any("error", err))
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot walk files tree: %w", err)
	}

	s.log.Info("Cleanup completed",
		slog.String("domain", site.Domain),
		slog.Int("files_removed", result.FilesRemoved),
		slog.Int64("bytes_freed", result.BytesFreed))

	return result, nil
}

func (s *Service) site(urlOrDomain string) (*entity.Site, error) {
	return s.reg.Lookup(domainkey.Normalize(urlOrDomain))
}

// scanDirs picks the buckets to scan: the single configured one when the
// category is known, all of them otherwise.
func (s *Service) scanDirs(side layout.Side, category string) []string {
	if category != "" && s.layout.HasCategory(side, category) {
		return []string{s.layout.CategoryDir(side, category)}
	}

	return s.layout.CategoryDirs(side)
}

// scan walks one bucket recursively. Unreadable entries and malformed
// sidecars are logged and skipped, never fatal.
func (s *Service) scan(dir, sideRoot, category string, withMeta bool) []*entity.Artifact {
	var artifacts []*entity.Artifact

	walkErr := afero.Walk(s.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if !os.IsNotExist(err) {
				s.log.Warn("Cannot visit path", slog.String("path", path), slog.Any("error", err))
			}

			return nil
		}

		if info.IsDir() || (withMeta && strings.HasSuffix(info.Name(), store.MetaSuffix)) {
			return nil
		}

		// The site sidecar sits in the metadata bucket but is registry
		// bookkeeping, not an analysis output.
		if !withMeta && info.Name() == registry.SiteInfoFileName {
			return nil
		}

		relPath, err := filepath.Rel(sideRoot, path)
		if err != nil {
			relPath = info.Name()
		}

		artifact := &entity.Artifact{
			ID:           util.GetIDFromString(&path),
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedAt:   info.ModTime(),
			Ext:          strings.ToLower(filepath.Ext(info.Name())),
			RelativePath: relPath,
			Category:     category,
		}

		if withMeta {
			artifact.Metadata = s.loadMeta(path)
		}

		artifacts = append(artifacts, artifact)

		return nil
	})
	if walkErr != nil {
		s.log.Warn("Cannot scan directory", slog.String("dir", dir), slog.Any("error", walkErr))
	}

	return artifacts
}

func (s *Service) loadMeta(path string) map[string]any {
	metaPath := path + store.MetaSuffix

	data, err := afero.ReadFile(s.fs, metaPath)
	if err != nil {
		return nil
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Warn("Cannot parse file metadata", slog.String("path", metaPath), slog.Any("error", err))

		return nil
	}

	return meta
}

func sortNewestFirst(artifacts []*entity.Artifact) {
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ModifiedAt.After(artifacts[j].ModifiedAt)
	})
}
