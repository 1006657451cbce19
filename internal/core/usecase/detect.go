package usecase

import (
	"fmt"
	"sort"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
)

// DetectionPolicy controls automatic converter selection. The floor and the
// candidate cap are deliberately configuration, not constants.
type DetectionPolicy struct {
	// ConfidenceFloor is the minimum top score required to auto-select a
	// converter without caller confirmation.
	ConfidenceFloor float64
	// MaxCandidates caps the candidate list attached to detection failures.
	MaxCandidates int
}

func DefaultDetectionPolicy() DetectionPolicy {
	return DetectionPolicy{
		ConfidenceFloor: 1.0,
		MaxCandidates:   5,
	}
}

func (p DetectionPolicy) normalize() DetectionPolicy {
	out := p
	def := DefaultDetectionPolicy()
	if out.ConfidenceFloor <= 0 {
		out.ConfidenceFloor = def.ConfidenceFloor
	}
	if out.MaxCandidates <= 0 {
		out.MaxCandidates = def.MaxCandidates
	}
	return out
}

// autoDetect queries every registered converter against one shared context and
// applies the selection policy: no positive score fails with "no match", an
// exact top-two tie fails with "ambiguous", a top score under the confidence
// floor fails with "low confidence".
func (s *DispatchService) autoDetect(dctx domain.DetectionContext) (ports.ReportConverter, domain.ReportCandidate, error) {
	var candidates []domain.ReportCandidate
	for _, conv := range s.registry.All() {
		res := conv.Detect(dctx)
		if res == nil || res.Score <= 0 {
			continue
		}
		desc := conv.Descriptor()
		candidates = append(candidates, domain.ReportCandidate{
			ReportID:        desc.ReportID,
			DisplayName:     desc.DisplayName,
			Score:           res.Score,
			MatchedKeywords: append([]string(nil), res.MatchedKeywords...),
		})
	}

	if len(candidates) == 0 {
		return nil, domain.ReportCandidate{}, &domain.DetectionError{
			Reason:     domain.DetectionNoMatch,
			Message:    "unable to determine report type automatically",
			Candidates: s.zeroCandidates(),
		}
	}

	// Stable sort keeps registration order among equal scores; only the
	// top-two comparison below is policy-bearing.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := candidates[0]
	if len(candidates) > 1 && candidates[1].Score == best.Score {
		return nil, domain.ReportCandidate{}, &domain.DetectionError{
			Reason:     domain.DetectionAmbiguous,
			Message:    "multiple report types matched with the same confidence",
			Candidates: capCandidates(candidates, s.policy.MaxCandidates),
		}
	}
	if best.Score < s.policy.ConfidenceFloor {
		return nil, domain.ReportCandidate{}, &domain.DetectionError{
			Reason:     domain.DetectionLowConfidence,
			Message:    fmt.Sprintf("detection confidence %.2f is below the floor %.2f", best.Score, s.policy.ConfidenceFloor),
			Candidates: capCandidates(candidates, s.policy.MaxCandidates),
		}
	}

	conv, err := s.registry.Get(best.ReportID)
	if err != nil {
		return nil, domain.ReportCandidate{}, err
	}
	return conv, best, nil
}

// zeroCandidates lists every registered converter with score zero so the
// caller can present a full manual-selection menu.
func (s *DispatchService) zeroCandidates() []domain.ReportCandidate {
	out := make([]domain.ReportCandidate, 0, s.registry.Size())
	for _, conv := range s.registry.All() {
		desc := conv.Descriptor()
		out = append(out, domain.ReportCandidate{
			ReportID:        desc.ReportID,
			DisplayName:     desc.DisplayName,
			Score:           0,
			MatchedKeywords: []string{},
		})
	}
	return out
}

func capCandidates(candidates []domain.ReportCandidate, limit int) []domain.ReportCandidate {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
