package entity

import "time"

// Site describes the storage locations of a single crawled domain.
// It owns two directory subtrees: one for downloaded files, one for
// analysis outputs. The counters are bookkeeping only, the filesystem
// stays the source of truth for statistics.
type Site struct {
	Domain         string         `json:"domain"`
	FilesPath      string         `json:"files_path"`
	AnalysisPath   string         `json:"analysis_path"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessed   time.Time      `json:"last_accessed"`
	TotalFiles     int64          `json:"total_files"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	Metadata       map[string]any `json:"metadata"`
}

// Clone returns a snapshot the caller may keep without racing registry
// updates. Metadata is copied shallowly.
func (s *Site) Clone() *Site {
	cp := *s

	if s.Metadata != nil {
		cp.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}

	return &cp
}
