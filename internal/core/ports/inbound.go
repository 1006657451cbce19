package ports

import (
	"context"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

// ReportCatalog is the inbound read model for converter discovery.
type ReportCatalog interface {
	ListReports() []domain.ReportDescriptor
}

// ReportDispatcher is the inbound contract for markdown-to-JSON conversion.
// reportID selects a converter explicitly; when empty the dispatcher
// auto-detects one from the markdown and the optional filename hint.
type ReportDispatcher interface {
	Convert(ctx context.Context, markdown, reportID, filenameHint string) (*domain.Outcome, error)
}
