package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "surveycli/internal/errors"
)

// SurveyExtensions lists the export formats the loader understands
var SurveyExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds survey exports relative to a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindSurveyFiles lists the survey exports directly inside dir, sorted by
// name. Office lock files (~$...) and hidden files are skipped.
func (d *Discovery) FindSurveyFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsSurveyFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// Expand turns a mix of files and directories into the list of survey
// exports to load. Directories are scanned one level deep; explicit files
// are kept even when their extension is unusual so the loader can report them.
// Duplicates are dropped and the first occurrence wins.
func (d *Discovery) Expand(inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, apperrors.ErrNoInputFiles
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}

	for _, input := range inputs {
		path := d.resolve(input)
		info, err := os.Stat(path)
		if err != nil {
			return nil, apperrors.NewNotFoundError(path).WithContext("input", input)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := d.FindSurveyFiles(path)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f.Path)
		}
	}

	if len(out) == 0 {
		return nil, apperrors.ErrNoInputFiles
	}
	return out, nil
}

// IsSurveyFile reports whether name looks like a loadable survey export
func IsSurveyFile(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range SurveyExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}
