package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.FileWalker = (*Walker)(nil)

type Walker struct {
	includes  []string
	excludes  []string
	recursive bool
}

func NewWalker(includes, excludes []string, recursive bool) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes:  includes,
		excludes:  excludes,
		recursive: recursive,
	}
}

// PatternFor returns the glob matching files with the given extension,
// either directly under the root or at any depth.
func PatternFor(ext string, recursive bool) string {
	if recursive {
		return "**/*." + ext
	}
	return "*." + ext
}

// Walk returns matching regular files under root in lexical order.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath == "." {
				return nil
			}
			if !w.recursive || w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// shouldInclude matches include patterns ignoring case, so "*.txt" also
// picks up "NOTES.TXT" the way a single file's extension is recognized.
func (w *Walker) shouldInclude(path string) bool {
	path = strings.ToLower(path)
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(strings.ToLower(pattern), path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/.git/**" should also prune the ".git/" directory itself.
		if strings.HasSuffix(pattern, "/**") {
			if matched, err := doublestar.Match(strings.TrimSuffix(pattern, "**"), path); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Classify reports whether path is a regular file or a directory.
func Classify(path string) (domain.PathKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a valid path: %v", domain.ErrInvalidPath, path, err)
	}
	switch {
	case info.IsDir():
		return domain.PathDir, nil
	case info.Mode().IsRegular():
		return domain.PathFile, nil
	default:
		return 0, fmt.Errorf("%w: %s is neither a file nor a directory", domain.ErrInvalidPath, path)
	}
}
