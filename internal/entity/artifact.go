package entity

import "time"

// Artifact is a stored file discovered by scanning a site's tree. It is
// computed on listing and never persisted.
type Artifact struct {
	ID           string // Stable hash of the storage path
	Path         string
	Name         string
	Size         int64
	ModifiedAt   time.Time
	Ext          string // Lowercase extension with leading dot
	RelativePath string // Relative to the site's root on this storage side
	Category     string // Category subdirectory (analysis side only)
	Metadata     map[string]any
}

type SiteStats struct {
	Domain            string    `json:"domain"`
	FilesCount        int       `json:"files_count"`
	TotalFileSize     int64     `json:"total_file_size"`
	AnalysisCount     int       `json:"analysis_outputs_count"`
	TotalAnalysisSize int64     `json:"total_analysis_size"`
	CreatedAt         time.Time `json:"created_at"`
	LastAccessed      time.Time `json:"last_accessed"`
	FilesPath         string    `json:"files_path"`
	AnalysisPath      string    `json:"analysis_path"`
}

type GlobalStats struct {
	TotalSites int          `json:"total_sites"`
	TotalFiles int          `json:"total_files"`
	TotalSize  int64        `json:"total_size"`
	Sites      []*SiteStats `json:"sites"`
}

type CleanupResult struct {
	FilesRemoved int   `json:"files_removed"`
	BytesFreed   int64 `json:"bytes_freed"`
}
