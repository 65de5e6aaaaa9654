// Package diskusage reports how full the volumes holding NeuroFit's data are.
package diskusage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/disk"
)

// Usage is the usage of a single volume.
type Usage struct {
	Path        string  `json:"path"`
	UsedPercent float64 `json:"usedPercent"`
	Free        uint64  `json:"free"`
	Total       uint64  `json:"total"`
}

// Paths returns the local directories the server writes to or serves from.
func Paths(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	var paths []string
	if cfg.Database != nil && cfg.Database.Driver == config.DatabaseDriverSQLite && cfg.Database.Path != "" {
		paths = append(paths, filepath.Dir(cfg.Database.Path))
	}
	if cfg.StaticDir != "" {
		paths = append(paths, filepath.Clean(cfg.StaticDir))
	}
	return lo.Uniq(paths)
}

// Highest returns the usage of the fullest volume among paths.
// Paths that can't be inspected are skipped; it only fails if none could.
func Highest(ctx context.Context, paths []string) (*Usage, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to inspect")
	}

	var highest *Usage
	var lastErr error
	for _, path := range paths {
		stat, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			log.Debug("failed to get disk usage", "path", path, "error", err)
			lastErr = err
			continue
		}
		if highest == nil || stat.UsedPercent > highest.UsedPercent {
			highest = &Usage{
				Path:        path,
				UsedPercent: stat.UsedPercent,
				Free:        stat.Free,
				Total:       stat.Total,
			}
		}
	}

	if highest == nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", lastErr)
	}
	return highest, nil
}
