package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/sitestore/internal/entity"
	"github.com/jgivc/sitestore/internal/service/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	reportBaseName = "storage_report"
	reportCategory = "reports"

	maxReportFiles = 10
)

type Inventory interface {
	SiteStats(urlOrDomain string) (*entity.SiteStats, error)
	Files(urlOrDomain, category string) ([]*entity.Artifact, error)
}

type OutputStore interface {
	StoreOutput(urlOrDomain, outputName string, content store.Content, category, extension string) (string, error)
}

// Service renders a per-site storage summary into the analysis tree: a
// markdown report with a frontmatter header plus an HTML copy. Report
// names are deterministic, regeneration overwrites the previous pair.
type Service struct {
	inv Inventory
	st  OutputStore
	md  goldmark.Markdown
	log *slog.Logger
}

func NewService(inv Inventory, st OutputStore, log *slog.Logger) *Service {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &Service{
		inv: inv,
		st:  st,
		md:  md,
		log: log.With(slog.String("item", "ReportService")),
	}
}

// Generate builds the report for a domain and stores both renditions.
// Returns the markdown and HTML paths.
func (s *Service) Generate(urlOrDomain string) (string, string, error) {
	stats, err := s.inv.SiteStats(urlOrDomain)
	if err != nil {
		return "", "", fmt.Errorf("cannot get site statistics: %w", err)
	}

	files, err := s.inv.Files(stats.Domain, "")
	if err != nil {
		return "", "", fmt.Errorf("cannot list site files: %w", err)
	}

	src := s.build(stats, files)

	mdPath, err := s.st.StoreOutput(stats.Domain, reportBaseName, store.Text(src), reportCategory, ".md")
	if err != nil {
		return "", "", fmt.Errorf("cannot store markdown report: %w", err)
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", "", fmt.Errorf("cannot render report: %w", err)
	}

	htmlPath, err := s.st.StoreOutput(stats.Domain, reportBaseName, store.Bytes(buf.Bytes()), reportCategory, ".html")
	if err != nil {
		return "", "", fmt.Errorf("cannot store html report: %w", err)
	}

	s.log.Info("Generated report", slog.String("domain", stats.Domain), slog.String("path", mdPath))

	return mdPath, htmlPath, nil
}

func (s *Service) build(stats *entity.SiteStats, files []*entity.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "---\nreport_id: %s\ndomain: %s\ngenerated_at: %s\n---\n\n",
		uuid.NewString(), stats.Domain, time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "# Storage report: %s\n\n", stats.Domain)
	fmt.Fprintf(&b, "- Files: %d (%d bytes)\n", stats.FilesCount, stats.TotalFileSize)
	fmt.Fprintf(&b, "- Analysis outputs: %d (%d bytes)\n", stats.AnalysisCount, stats.TotalAnalysisSize)
	fmt.Fprintf(&b, "- First seen: %s\n", stats.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Last accessed: %s\n", stats.LastAccessed.Format(time.RFC3339))

	if len(files) > 0 {
		b.WriteString("\n## Newest files\n\n")

		for i, f := range files {
			if i >= maxReportFiles {
				break
			}

			fmt.Fprintf(&b, "- %s (%d bytes, %s)\n", f.RelativePath, f.Size, f.ModifiedAt.Format(time.RFC3339))
		}
	}

	return b.String()
}
