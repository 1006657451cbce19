package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
	"github.com/kirillkom/docling-reports/internal/core/registry"
)

type converterFake struct {
	id       string
	name     string
	keywords []string

	convertErr   error
	convertData  map[string]any
	gotMarkdown  string
	gotPath      string
	pathExisted  bool
	convertCalls int
}

func (f *converterFake) Descriptor() domain.ReportDescriptor {
	return domain.ReportDescriptor{
		ReportID:    f.id,
		DisplayName: f.name,
		Keywords:    f.keywords,
	}
}

// Detect mirrors the production keyword scoring closely enough for dispatch
// tests: occurrence counts in the markdown, one credit for a filename-only hit.
func (f *converterFake) Detect(dctx domain.DetectionContext) *domain.DetectionResult {
	text := strings.ToLower(dctx.Markdown)
	filename := strings.ToLower(dctx.OriginalFilename)

	var (
		score   float64
		matched []string
	)
	for _, kw := range f.keywords {
		kw = strings.ToLower(kw)
		if n := strings.Count(text, kw); n > 0 {
			score += float64(n)
			matched = append(matched, kw)
			continue
		}
		if strings.Contains(filename, kw) {
			score++
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return &domain.DetectionResult{Score: score, MatchedKeywords: matched}
}

func (f *converterFake) Convert(_ context.Context, markdown, markdownPath string, _ domain.ConversionSettings) (map[string]any, error) {
	f.convertCalls++
	f.gotMarkdown = markdown
	f.gotPath = markdownPath
	if _, err := os.Stat(markdownPath); err == nil {
		f.pathExisted = true
	}
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	if f.convertData != nil {
		return f.convertData, nil
	}
	return map[string]any{"ok": true}, nil
}

func newService(t *testing.T, policy DetectionPolicy, converters ...*converterFake) *DispatchService {
	t.Helper()
	wired := make([]ports.ReportConverter, len(converters))
	for i, c := range converters {
		wired[i] = c
	}
	reg, err := registry.New(wired...)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return NewDispatchService(reg, domain.ConversionSettings{}, policy)
}

func TestConvertExplicitReportID(t *testing.T) {
	conv := &converterFake{id: "ballistic", name: "Ballistic", keywords: []string{"velocity"}}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	outcome, err := svc.Convert(context.Background(), "muzzle velocity table", "ballistic", "report.pdf")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if outcome.ReportID != "ballistic" {
		t.Fatalf("expected ballistic, got %s", outcome.ReportID)
	}
	if outcome.Score != 1 {
		t.Fatalf("expected score 1, got %v", outcome.Score)
	}
	if conv.convertCalls != 1 {
		t.Fatalf("expected one convert call, got %d", conv.convertCalls)
	}
}

func TestConvertExplicitUnknownReportID(t *testing.T) {
	svc := newService(t, DefaultDetectionPolicy(), &converterFake{id: "known", keywords: []string{"k"}})

	_, err := svc.Convert(context.Background(), "some markdown", "missing", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnknownReport) {
		t.Fatalf("expected ErrUnknownReport, got %v", err)
	}
}

func TestConvertExplicitRunsEvenWithoutDetectionMatch(t *testing.T) {
	conv := &converterFake{id: "bump", name: "Bump", keywords: []string{"bump test"}}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	outcome, err := svc.Convert(context.Background(), "markdown without the keyword", "bump", "")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if outcome.Score != 0 {
		t.Fatalf("expected score 0 for unmatched explicit selection, got %v", outcome.Score)
	}
	if outcome.MatchedKeywords == nil || len(outcome.MatchedKeywords) != 0 {
		t.Fatalf("expected empty matched keywords, got %v", outcome.MatchedKeywords)
	}
}

func TestConvertEmptyMarkdown(t *testing.T) {
	svc := newService(t, DefaultDetectionPolicy(), &converterFake{id: "a", keywords: []string{"k"}})

	_, err := svc.Convert(context.Background(), "   \n\t", "a", "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAutoDetectScoresOccurrences(t *testing.T) {
	bump := &converterFake{id: "bump", name: "Bump", keywords: []string{"bump test", "pulse duration"}}
	other := &converterFake{id: "other", name: "Other", keywords: []string{"vibration"}}
	svc := newService(t, DefaultDetectionPolicy(), bump, other)

	markdown := "bump test setup\nbump test results\npulse duration: 6 ms"
	outcome, err := svc.Convert(context.Background(), markdown, "", "")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if outcome.ReportID != "bump" {
		t.Fatalf("expected bump, got %s", outcome.ReportID)
	}
	if outcome.Score != 3 {
		t.Fatalf("expected score 3 (two occurrences + one), got %v", outcome.Score)
	}
	if len(outcome.MatchedKeywords) != 2 {
		t.Fatalf("expected two matched keywords, got %v", outcome.MatchedKeywords)
	}
}

func TestAutoDetectNoMatchListsAllConverters(t *testing.T) {
	svc := newService(t, DefaultDetectionPolicy(),
		&converterFake{id: "a", name: "A", keywords: []string{"alpha"}},
		&converterFake{id: "b", name: "B", keywords: []string{"beta"}},
		&converterFake{id: "c", name: "C", keywords: []string{"gamma"}},
	)

	_, err := svc.Convert(context.Background(), "nothing matches here", "", "")
	det, ok := domain.AsDetectionError(err)
	if !ok {
		t.Fatalf("expected DetectionError, got %v", err)
	}
	if det.Reason != domain.DetectionNoMatch {
		t.Fatalf("expected no_match, got %s", det.Reason)
	}
	if len(det.Candidates) != 3 {
		t.Fatalf("expected all 3 converters as candidates, got %d", len(det.Candidates))
	}
	for _, cand := range det.Candidates {
		if cand.Score != 0 {
			t.Fatalf("no-match candidates must carry score 0, got %v", cand.Score)
		}
	}
}

func TestAutoDetectAmbiguousTie(t *testing.T) {
	svc := newService(t, DefaultDetectionPolicy(),
		&converterFake{id: "a", name: "A", keywords: []string{"shared"}},
		&converterFake{id: "b", name: "B", keywords: []string{"shared"}},
	)

	_, err := svc.Convert(context.Background(), "shared keyword text", "", "")
	det, ok := domain.AsDetectionError(err)
	if !ok {
		t.Fatalf("expected DetectionError, got %v", err)
	}
	if det.Reason != domain.DetectionAmbiguous {
		t.Fatalf("expected ambiguous, got %s", det.Reason)
	}
	if len(det.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(det.Candidates))
	}
}

func TestAutoDetectLowConfidence(t *testing.T) {
	svc := newService(t, DetectionPolicy{ConfidenceFloor: 2.0, MaxCandidates: 5},
		&converterFake{id: "a", name: "A", keywords: []string{"alpha"}},
	)

	_, err := svc.Convert(context.Background(), "alpha once only", "", "")
	det, ok := domain.AsDetectionError(err)
	if !ok {
		t.Fatalf("expected DetectionError, got %v", err)
	}
	if det.Reason != domain.DetectionLowConfidence {
		t.Fatalf("expected low_confidence, got %s", det.Reason)
	}
}

func TestAutoDetectCandidateCap(t *testing.T) {
	converters := []*converterFake{
		{id: "a", name: "A", keywords: []string{"shared"}},
		{id: "b", name: "B", keywords: []string{"shared"}},
		{id: "c", name: "C", keywords: []string{"shared"}},
	}
	svc := newService(t, DetectionPolicy{ConfidenceFloor: 1.0, MaxCandidates: 2}, converters...)

	_, err := svc.Convert(context.Background(), "shared shared", "", "")
	det, ok := domain.AsDetectionError(err)
	if !ok {
		t.Fatalf("expected DetectionError, got %v", err)
	}
	if len(det.Candidates) != 2 {
		t.Fatalf("expected candidate list capped at 2, got %d", len(det.Candidates))
	}
}

func TestAutoDetectFilenameCredit(t *testing.T) {
	svc := newService(t, DefaultDetectionPolicy(),
		&converterFake{id: "vib", name: "Vibration", keywords: []string{"vibration"}},
	)

	outcome, err := svc.Convert(context.Background(), "no keyword in the body", "", "vibration_2024.pdf")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if outcome.Score != 1 {
		t.Fatalf("expected filename credit score 1, got %v", outcome.Score)
	}
}

func TestAutoDetectIsDeterministic(t *testing.T) {
	converters := []*converterFake{
		{id: "low", name: "Low", keywords: []string{"common"}},
		{id: "high", name: "High", keywords: []string{"common", "specific"}},
	}
	markdown := "common specific common"

	var first string
	for i := 0; i < 10; i++ {
		svc := newService(t, DefaultDetectionPolicy(), converters...)
		outcome, err := svc.Convert(context.Background(), markdown, "", "")
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if i == 0 {
			first = outcome.ReportID
			continue
		}
		if outcome.ReportID != first {
			t.Fatalf("detection not deterministic: %s vs %s", first, outcome.ReportID)
		}
	}
	if first != "high" {
		t.Fatalf("expected high to win with score 3, got %s", first)
	}
}

func TestConvertScratchFileLifecycle(t *testing.T) {
	conv := &converterFake{id: "a", name: "A", keywords: []string{"alpha"}}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	if _, err := svc.Convert(context.Background(), "alpha body", "a", ""); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !conv.pathExisted {
		t.Fatalf("scratch file must exist during conversion")
	}
	if _, err := os.Stat(conv.gotPath); !os.IsNotExist(err) {
		t.Fatalf("scratch file must be removed after conversion, stat err = %v", err)
	}
}

func TestConvertScratchRemovedOnFailure(t *testing.T) {
	conv := &converterFake{id: "a", keywords: []string{"alpha"}, convertErr: errors.New("boom")}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	if _, err := svc.Convert(context.Background(), "alpha", "a", ""); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(conv.gotPath); !os.IsNotExist(err) {
		t.Fatalf("scratch file must be removed on failure, stat err = %v", err)
	}
}

func TestConvertNormalizesConverterErrors(t *testing.T) {
	conv := &converterFake{id: "a", keywords: []string{"alpha"}, convertErr: errors.New("plain failure")}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	_, err := svc.Convert(context.Background(), "alpha", "a", "")
	if !domain.IsKind(err, domain.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestConvertPreservesTypedConverterErrors(t *testing.T) {
	typedErr := domain.WrapError(domain.ErrConversion, "convert",
		domain.WrapError(domain.ErrBackendTimeout, "extract", errors.New("deadline")))
	conv := &converterFake{id: "a", keywords: []string{"alpha"}, convertErr: typedErr}
	svc := newService(t, DefaultDetectionPolicy(), conv)

	_, err := svc.Convert(context.Background(), "alpha", "a", "")
	if !domain.IsKind(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected inner ErrBackendTimeout preserved, got %v", err)
	}
}
