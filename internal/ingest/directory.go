package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/constants"
)

// FileResult is the per-file outcome of a directory ingest, serialized in
// API responses.
type FileResult struct {
	Path         string    `json:"path"`
	DocumentID   uuid.UUID `json:"document_id,omitempty"`
	Deduplicated bool      `json:"deduplicated"`
	HashHex      string    `json:"hash,omitempty"`
	Err          string    `json:"error,omitempty"`
}

// DirStats aggregates one directory walk.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

// IngestDirectory walks root and registers every file whose extension is in
// includeExts, defaulting to the full allowed set. Hidden files and
// directories are skipped when skipHidden is set. Individual file failures
// are recorded per file and never stop the walk.
func (i *FSIngestor) IngestDirectory(ctx context.Context, tenantID uuid.UUID, uploadedBy, root string, includeExts []string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}
	wanted := extFilter(includeExts)

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && strings.HasPrefix(filepath.Base(path), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := wanted[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++

		res, err := i.IngestPath(ctx, tenantID, uploadedBy, path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{
			Path:         path,
			DocumentID:   res.DocumentID,
			Deduplicated: res.Deduplicated,
			HashHex:      res.HashHex,
		})
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// extFilter normalizes the requested extensions into a lookup set, falling
// back to every allowed extension when none are given.
func extFilter(includeExts []string) map[string]struct{} {
	wanted := make(map[string]struct{}, len(includeExts))
	for _, e := range includeExts {
		if e = constants.NormalizeExt(e); e != "" {
			wanted[e] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		for e := range constants.AllowedExtensions {
			wanted[e] = struct{}{}
		}
	}
	return wanted
}
