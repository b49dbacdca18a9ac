package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jgivc/sitestore/internal/common"
	"github.com/jgivc/sitestore/internal/domainkey"
	"github.com/jgivc/sitestore/internal/entity"
	"github.com/jgivc/sitestore/internal/storage/layout"
	"github.com/spf13/afero"
)

const (
	MetaSuffix = ".meta.json"

	fallbackNameLayout = "20060102_150405"
	filePerm           = 0o644
)

type SiteRegistry interface {
	GetOrCreate(domain string) (*entity.Site, error)
	Lookup(domain string) (*entity.Site, error)
	RecordWrite(domain string, size int64)
}

// Service resolves storage paths and places artifacts under them.
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
		log:    log.With(slog.String("item", "StoreService")),
	}
}

// FilesPath resolves the directory for downloaded files of the given
// category. With createIfMissing the site storage is provisioned on the
// fly; otherwise an unknown domain is common.ErrStorageNotFound.
func (s *Service) FilesPath(urlOrDomain, category string, createIfMissing bool) (string, error) {
	site, err := s.site(urlOrDomain, createIfMissing)
	if err != nil {
		return "", err
	}

	return filepath.Join(site.FilesPath, s.layout.CategoryDir(layout.SideFiles, category)), nil
}

// AnalysisPath resolves the directory for analysis outputs of the given
// category.
func (s *Service) AnalysisPath(urlOrDomain, category string, createIfMissing bool) (string, error) {
	site, err := s.site(urlOrDomain, createIfMissing)
	if err != nil {
		return "", err
	}

	return filepath.Join(site.AnalysisPath, s.layout.CategoryDir(layout.SideAnalysis, category)), nil
}

// StoreFile places downloaded bytes under the domain's files tree. The
// name is derived from the source URL; an occupied name gets an increasing
// integer suffix before its extension. When meta is given, a .meta.json
// sidecar is written next to the file (best-effort). Returns the final
// stored path.
func (s *Service) StoreFile(urlOrDomain, fileURL string, content []byte, category string, meta map[string]any) (string, error) {
	domain := domainkey.Normalize(urlOrDomain)

	dir, err := s.FilesPath(domain, category, true)
	if err != nil {
		return "", fmt.Errorf("cannot resolve files path: %w", err)
	}

	filePath, err := s.uniquePath(dir, fileNameFromURL(fileURL))
	if err != nil {
		return "", fmt.Errorf("cannot pick file name: %w", err)
	}

	if err := afero.WriteFile(s.fs, filePath, content, filePerm); err != nil {
		return "", fmt.Errorf("cannot write file %s: %w", filePath, err)
	}

	if meta != nil {
		s.writeMeta(filePath, fileURL, len(content), meta)
	}

	s.reg.RecordWrite(domain, int64(len(content)))

	s.log.Info("Stored file", slog.String("domain", domain), slog.String("path", filePath))

	return filePath, nil
}

// StoreOutput places an analysis output under the domain's analysis tree.
// The extension is appended unless already present. Output names are
// chosen deterministically by the producer, so an existing file is
// overwritten on purpose.
func (s *Service) StoreOutput(urlOrDomain, outputName string, content Content, category, extension string) (string, error) {
	if content == nil {
		return "", fmt.Errorf("%w: nil content", common.ErrUnsupportedContent)
	}

	data, err := content.render()
	if err != nil {
		return "", err
	}

	dir, err := s.AnalysisPath(urlOrDomain, category, true)
	if err != nil {
		return "", fmt.Errorf("cannot resolve analysis path: %w", err)
	}

	if !strings.HasSuffix(outputName, extension) {
		outputName += extension
	}

	filePath := filepath.Join(dir, outputName)

	if err := afero.WriteFile(s.fs, filePath, data, filePerm); err != nil {
		return "", fmt.Errorf("cannot write analysis output %s: %w", filePath, err)
	}

	s.log.Info("Stored analysis output", slog.String("path", filePath))

	return filePath, nil
}

// StoreOutputValue is StoreOutput for untyped payloads, dispatched through
// ContentOf. Nothing is written when the payload shape is unsupported.
func (s *Service) StoreOutputValue(urlOrDomain, outputName string, v any, category, extension string) (string, error) {
	content, err := ContentOf(v)
	if err != nil {
		return "", err
	}

	return s.StoreOutput(urlOrDomain, outputName, content, category, extension)
}

func (s *Service) site(urlOrDomain string, createIfMissing bool) (*entity.Site, error) {
	domain := domainkey.Normalize(urlOrDomain)

	if createIfMissing {
		return s.reg.GetOrCreate(domain)
	}

	return s.reg.Lookup(domain)
}

// uniquePath probes for a free name. Check-then-act against the
// filesystem: good enough to avoid accidental clobbering within a crawl
// run, not a multi-writer lock.
func (s *Service) uniquePath(dir, name string) (string, error) {
	filePath := filepath.Join(dir, name)

	for n := 0; ; n++ {
		if n > 0 {
			filePath = filepath.Join(dir, suffixedName(name, n))
		}

		exists, err := afero.Exists(s.fs, filePath)
		if err != nil {
			return "", err
		}

		if !exists {
			return filePath, nil
		}
	}
}

// writeMeta stores the artifact sidecar. Best-effort: the primary write
// already succeeded, a sidecar failure must not fail the operation.
func (s *Service) writeMeta(filePath, fileURL string, size int, meta map[string]any) {
	merged := make(map[string]any, len(meta)+4)
	for k, v := range meta {
		merged[k] = v
	}

	merged["original_url"] = fileURL
	merged["downloaded_at"] = time.Now().Format(time.RFC3339)
	merged["file_size"] = size
	merged["storage_path"] = filePath

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		s.log.Error("Cannot marshal file metadata", slog.String("path", filePath), slog.Any("error", err))

		return
	}

	if err := afero.WriteFile(s.fs, filePath+MetaSuffix, data, filePerm); err != nil {
		s.log.Error("Cannot save file metadata", slog.String("path", filePath), slog.Any("error", err))
	}
}

func suffixedName(name string, n int) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return fmt.Sprintf("%s_%d", name, n)
	}

	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// fileNameFromURL derives a base name from the URL's last path segment,
// falling back to a timestamped name for URLs without one.
func fileNameFromURL(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil {
		p = u.Path
	}

	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		name = fmt.Sprintf("file_%s", time.Now().Format(fallbackNameLayout))
	}

	return name
}
