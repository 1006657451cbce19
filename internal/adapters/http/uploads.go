package httpadapter

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UploadEntry describes one stored original document.
type UploadEntry struct {
	ID           string
	Path         string
	ContentType  string
	OriginalName string
	CreatedAt    time.Time
}

// UploadRegistry keeps uploaded originals on disk for a bounded lifetime so
// the caller can fetch the source document next to its conversion result.
// Cleanup is opportunistic: every Store/Resolve sweeps expired entries first.
type UploadRegistry struct {
	dir    string
	maxAge time.Duration

	mu      sync.Mutex
	entries map[string]UploadEntry
}

func NewUploadRegistry(dir string, maxAge time.Duration) (*UploadRegistry, error) {
	if dir == "" {
		dir = "./temp_uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadRegistry{
		dir:     dir,
		maxAge:  maxAge,
		entries: make(map[string]UploadEntry),
	}, nil
}

// Store writes the upload under id and registers it.
func (reg *UploadRegistry) Store(id, originalName string, src io.Reader) (UploadEntry, error) {
	reg.CleanupExpired()

	path := filepath.Join(reg.dir, id+filepath.Ext(originalName))
	dst, err := os.Create(path)
	if err != nil {
		return UploadEntry{}, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return UploadEntry{}, fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return UploadEntry{}, fmt.Errorf("close upload file: %w", err)
	}

	entry := UploadEntry{
		ID:           id,
		Path:         path,
		ContentType:  inferContentType(originalName),
		OriginalName: originalName,
		CreatedAt:    time.Now(),
	}
	reg.mu.Lock()
	reg.entries[id] = entry
	reg.mu.Unlock()

	return entry, nil
}

// Resolve returns the entry for id if it is still registered.
func (reg *UploadRegistry) Resolve(id string) (UploadEntry, bool) {
	reg.CleanupExpired()

	reg.mu.Lock()
	entry, ok := reg.entries[id]
	reg.mu.Unlock()
	return entry, ok
}

// Discard drops an entry and its file. A file already gone is not an error.
func (reg *UploadRegistry) Discard(id string) {
	reg.mu.Lock()
	entry, ok := reg.entries[id]
	delete(reg.entries, id)
	reg.mu.Unlock()

	if ok {
		removeQuiet(entry.Path)
	}
}

// CleanupExpired removes entries past the registry lifetime and returns how
// many were dropped. A non-positive lifetime disables expiry.
func (reg *UploadRegistry) CleanupExpired() int {
	if reg.maxAge <= 0 {
		return 0
	}

	now := time.Now()
	var stale []UploadEntry

	reg.mu.Lock()
	for id, entry := range reg.entries {
		if now.Sub(entry.CreatedAt) > reg.maxAge {
			stale = append(stale, entry)
			delete(reg.entries, id)
		}
	}
	reg.mu.Unlock()

	for _, entry := range stale {
		removeQuiet(entry.Path)
	}
	return len(stale)
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove temp file", "path", path, "error", err)
	}
}

var contentTypeFallbacks = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".txt":  "text/plain",
}

// inferContentType guesses a content type from the filename with sensible
// fallbacks for common document formats.
func inferContentType(filename string) string {
	ext := filepath.Ext(filename)
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	if fallback, ok := contentTypeFallbacks[filepath.Ext(filename)]; ok {
		return fallback
	}
	return "application/octet-stream"
}
