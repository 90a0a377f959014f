package plugins

import "github.com/efebarandurmaz/aspiredoc/internal/model"

// SourceFile is a single corpus record.
type SourceFile struct {
	Path    string // relative to the scanned root, slash separated
	Content []byte
}

// Extractor recovers a structural model from a corpus.
type Extractor interface {
	// Framework returns the orchestration framework identifier (e.g. "aspire").
	Framework() string
	// Extract builds the model. It never fails: text that does not match a
	// known idiom is skipped.
	Extract(files []SourceFile) *model.Model
}

// FileExtensionsProvider is an optional interface for extractors to declare
// which file extensions they read (e.g. []string{".cs"}).
//
// When not implemented, the loader falls back to its configured allow-list.
type FileExtensionsProvider interface {
	FileExtensions() []string
}
