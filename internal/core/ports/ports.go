package ports

import (
	"context"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

// ReportConverter wraps one report schema and its extraction procedure behind
// a uniform detect/convert contract. Implementations must be safe for
// concurrent use.
type ReportConverter interface {
	Descriptor() domain.ReportDescriptor

	// Detect scores how likely this converter's schema matches the given
	// markdown. A nil result means no keyword matched at all.
	Detect(dctx domain.DetectionContext) *domain.DetectionResult

	// Convert extracts the structured payload. markdownPath points at a
	// file-backed copy of markdown for converters that operate on files.
	Convert(ctx context.Context, markdown, markdownPath string, settings domain.ConversionSettings) (map[string]any, error)
}

// StructuredExtractor is the outbound contract to the model backend: one
// blocking request carrying the extraction prompt and the report schema as a
// machine-checkable constraint, returning the raw JSON text of the response.
type StructuredExtractor interface {
	ExtractJSON(ctx context.Context, settings domain.ConversionSettings, prompt string, schema map[string]any) ([]byte, error)
}

// MarkdownConverter is the outbound contract to the OCR collaborator.
type MarkdownConverter interface {
	ToMarkdown(ctx context.Context, req domain.OCRRequest) (string, error)
}

// ConversionRuntime reports the device/thread defaults of the OCR collaborator.
type ConversionRuntime interface {
	Runtime(ctx context.Context) domain.OCRRuntime
}
