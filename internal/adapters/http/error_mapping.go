package httpadapter

import (
	"net/http"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrEmptyInput), domain.IsKind(err, domain.ErrConfig):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrCorruptFile):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
