// Package corpus loads the project files handed to the extractors.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/efebarandurmaz/aspiredoc/internal/plugins"
)

// File is one loaded project file. Path is relative to the scan root and
// always uses forward slashes.
type File struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
	Size      int    `json:"size"`
	Content   []byte `json:"-"`
}

// Loader walks a project tree and reads every file with an allowed extension.
type Loader struct {
	extensions map[string]bool
	skipDirs   map[string]bool
	logger     *zap.Logger
}

// NewLoader builds a loader. Extensions are matched case-insensitively and
// include the leading dot. An empty extension list admits every file.
func NewLoader(extensions, skipDirs []string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		extensions: make(map[string]bool, len(extensions)),
		skipDirs:   make(map[string]bool, len(skipDirs)),
		logger:     logger,
	}
	for _, ext := range extensions {
		ext = strings.TrimSpace(strings.ToLower(ext))
		if ext != "" {
			l.extensions[ext] = true
		}
	}
	for _, d := range skipDirs {
		l.skipDirs[d] = true
	}
	return l
}

// Load returns the files under root sorted by path. A root that does not
// exist yields no files. Unreadable files are logged and skipped.
func (l *Loader) Load(ctx context.Context, root string) ([]File, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("project directory not found", zap.String("root", root))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		f, err := l.read(filepath.Dir(root), root)
		if err != nil {
			return nil, err
		}
		return []File{f}, nil
	}

	var files []File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			l.logger.Warn("skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if p != root && l.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.allowed(p) {
			return nil
		}

		f, err := l.read(root, p)
		if err != nil {
			l.logger.Warn("could not read file", zap.String("path", p), zap.Error(err))
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	l.logger.Info("scanned project files", zap.String("root", root), zap.Int("files", len(files)))
	return files, nil
}

func (l *Loader) allowed(p string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	return l.extensions[strings.ToLower(filepath.Ext(p))]
}

func (l *Loader) read(root, p string) (File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return File{}, err
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	return File{
		Path:      filepath.ToSlash(rel),
		Extension: strings.ToLower(filepath.Ext(p)),
		Size:      len(data),
		Content:   data,
	}, nil
}

// SourceFiles converts loaded files into extractor input, keeping order.
func SourceFiles(files []File) []plugins.SourceFile {
	out := make([]plugins.SourceFile, 0, len(files))
	for _, f := range files {
		out = append(out, plugins.SourceFile{Path: f.Path, Content: f.Content})
	}
	return out
}

// ForExtractor keeps only the files an extractor declares interest in. An
// extractor that does not declare extensions receives every file.
func ForExtractor(files []File, e plugins.Extractor) []File {
	fep, ok := e.(plugins.FileExtensionsProvider)
	if !ok {
		return files
	}
	want := make(map[string]bool)
	for _, ext := range fep.FileExtensions() {
		want[strings.ToLower(ext)] = true
	}
	var out []File
	for _, f := range files {
		if want[f.Extension] {
			out = append(out, f)
		}
	}
	return out
}

// TotalBytes sums the size of all files.
func TotalBytes(files []File) int {
	n := 0
	for _, f := range files {
		n += f.Size
	}
	return n
}
