package docprobe

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageCount returns the page count of a PDF file. Non-PDF files report zero
// pages without error; probing is best-effort metadata for upload responses.
func PageCount(path string) (int, error) {
	if !IsPDF(path) {
		return 0, nil
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %q: %w", filepath.Base(path), err)
	}
	defer f.Close()

	return r.NumPage(), nil
}

func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
