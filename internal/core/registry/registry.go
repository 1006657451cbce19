package registry

import (
	"fmt"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
)

// Registry owns the complete, immutable set of report converters. It is built
// once at startup and handed to callers; all reads are safe for concurrent use.
type Registry struct {
	converters []ports.ReportConverter
	byID       map[string]ports.ReportConverter
}

// New builds a registry from the given converters, preserving their order.
// Every converter must carry a non-empty, globally unique report id.
func New(converters ...ports.ReportConverter) (*Registry, error) {
	r := &Registry{
		converters: make([]ports.ReportConverter, 0, len(converters)),
		byID:       make(map[string]ports.ReportConverter, len(converters)),
	}
	for _, conv := range converters {
		desc := conv.Descriptor()
		if desc.ReportID == "" {
			return nil, fmt.Errorf("registry: converter %q has empty report id", desc.DisplayName)
		}
		if _, exists := r.byID[desc.ReportID]; exists {
			return nil, fmt.Errorf("registry: duplicate report id %q", desc.ReportID)
		}
		r.byID[desc.ReportID] = conv
		r.converters = append(r.converters, conv)
	}
	return r, nil
}

// Get returns the converter registered under id.
func (r *Registry) Get(id string) (ports.ReportConverter, error) {
	conv, ok := r.byID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnknownReport, "registry lookup", fmt.Errorf("report %q is not registered", id))
	}
	return conv, nil
}

// All returns every registered converter in registration order.
func (r *Registry) All() []ports.ReportConverter {
	out := make([]ports.ReportConverter, len(r.converters))
	copy(out, r.converters)
	return out
}

// Descriptors returns the metadata projection used by discovery endpoints.
func (r *Registry) Descriptors() []domain.ReportDescriptor {
	out := make([]domain.ReportDescriptor, 0, len(r.converters))
	for _, conv := range r.converters {
		out = append(out, conv.Descriptor())
	}
	return out
}

// Size reports the number of registered converters.
func (r *Registry) Size() int {
	return len(r.converters)
}
