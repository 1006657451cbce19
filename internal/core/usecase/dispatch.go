package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
	"github.com/kirillkom/docling-reports/internal/core/registry"
)

// DispatchService turns "markdown + optional report id" into one chosen
// converter and its output. It is stateless per call and safe for concurrent
// use; the registry handle is immutable after construction.
type DispatchService struct {
	registry   *registry.Registry
	settings   domain.ConversionSettings
	policy     DetectionPolicy
	scratchDir string
}

func NewDispatchService(reg *registry.Registry, settings domain.ConversionSettings, policy DetectionPolicy) *DispatchService {
	return &DispatchService{
		registry: reg,
		settings: settings,
		policy:   policy.normalize(),
	}
}

// ListReports returns metadata about all registered report converters.
func (s *DispatchService) ListReports() []domain.ReportDescriptor {
	return s.registry.Descriptors()
}

// Convert selects a converter for markdown and runs its extraction. With a
// non-empty reportID the converter is looked up directly; detection still runs
// so the caller gets a confidence score, but a missing result does not block
// conversion. With an empty reportID the converter is auto-detected.
func (s *DispatchService) Convert(ctx context.Context, markdown, reportID, filenameHint string) (*domain.Outcome, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "convert markdown", errors.New("markdown content is empty"))
	}

	dctx := domain.DetectionContext{
		Markdown:         markdown,
		OriginalFilename: filenameHint,
	}

	var (
		conv    ports.ReportConverter
		score   float64
		matched []string
	)
	if reportID != "" {
		var err error
		conv, err = s.registry.Get(reportID)
		if err != nil {
			return nil, err
		}
		if res := conv.Detect(dctx); res != nil {
			score = res.Score
			matched = append([]string(nil), res.MatchedKeywords...)
		}
	} else {
		detected, candidate, err := s.autoDetect(dctx)
		if err != nil {
			return nil, err
		}
		conv = detected
		score = candidate.Score
		matched = candidate.MatchedKeywords
	}
	if matched == nil {
		matched = []string{}
	}

	data, err := s.runConverter(ctx, conv, markdown)
	if err != nil {
		return nil, err
	}

	desc := conv.Descriptor()
	return &domain.Outcome{
		ReportID:        desc.ReportID,
		DisplayName:     desc.DisplayName,
		Score:           score,
		MatchedKeywords: matched,
		Data:            data,
	}, nil
}

// runConverter materializes the markdown into a private scratch file, invokes
// the converter, and releases the scratch file on every exit path. Any error
// that is not already a recognized conversion kind is normalized to one.
func (s *DispatchService) runConverter(ctx context.Context, conv ports.ReportConverter, markdown string) (map[string]any, error) {
	desc := conv.Descriptor()

	scratchPath, err := s.writeScratch(markdown)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConversion, "prepare scratch markdown", err)
	}
	defer func() {
		if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("scratch cleanup failed", "path", scratchPath, "error", err)
		}
	}()

	data, err := conv.Convert(ctx, markdown, scratchPath, s.settings)
	if err != nil {
		if domain.IsKind(err, domain.ErrConversion) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrConversion, fmt.Sprintf("converter %q", desc.ReportID), err)
	}
	return data, nil
}

func (s *DispatchService) writeScratch(markdown string) (string, error) {
	dir := s.scratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%s.md", uuid.NewString()))
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write scratch markdown: %w", err)
	}
	return path, nil
}
