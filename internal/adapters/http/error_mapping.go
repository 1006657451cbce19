package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps conversion pipeline errors onto HTTP statuses.
// Detection failures are 409 with the candidate list so clients can offer a
// manual report selection.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if det, ok := domain.AsDetectionError(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      det.Message,
			"reason":     det.Reason,
			"candidates": det.Candidates,
		})
		return
	}

	requestID := requestIDFromContext(r.Context())
	switch {
	case domain.IsKind(err, domain.ErrUnknownReport), domain.IsKind(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsKind(err, domain.ErrBackendTimeout):
		slog.Error("conversion backend timed out", "request_id", requestID, "error", err)
		writeError(w, http.StatusGatewayTimeout, "extraction backend timed out")
	case domain.IsKind(err, domain.ErrBackendUnreachable), domain.IsKind(err, domain.ErrTemporary):
		slog.Error("conversion backend unavailable", "request_id", requestID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "extraction backend unavailable")
	default:
		slog.Error("conversion failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "conversion failed")
	}
}

// conversionStatus labels an error for metrics; "ok" is reserved for success.
func conversionStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrUnknownReport):
		return "unknown_report"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrBackendTimeout):
		return "backend_timeout"
	case domain.IsKind(err, domain.ErrBackendUnreachable):
		return "backend_unreachable"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	default:
		if det, ok := domain.AsDetectionError(err); ok {
			return "detect_" + string(det.Reason)
		}
		return "error"
	}
}
