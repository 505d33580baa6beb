package representative

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "visaflow/internal/errors"
)

const maxSearchIDs = 100

type Controller struct {
	useCase SearchUseCase
	logger  *zap.Logger
}

func NewController(useCase SearchUseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *Controller) Register(r chi.Router) {
	r.Post("/representatives/search", c.HandleSearchRepresentatives)
}

func (c *Controller) HandleSearchRepresentatives(w http.ResponseWriter, r *http.Request) {
	var req SearchRepresentativesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validateSearchRequest(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.SearchRepresentatives(r.Context(), req)
	if err != nil {
		if _, ok := apperrors.IsUnsupportedCategoryError(err); ok {
			c.writeValidationError(w, err.Error(), apperrors.ValidationDetail{
				Field:   "visaCategory",
				Message: err.Error(),
			})
			return
		}
		c.logger.Error("search representatives failed", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) validateSearchRequest(req SearchRepresentativesRequest) error {
	if len(req.RepresentativeIDs) == 0 {
		return apperrors.NewValidationError("representativeIds is required", apperrors.ValidationDetail{
			Field:   "representativeIds",
			Message: "representativeIds must not be empty",
		})
	}

	if len(req.RepresentativeIDs) > maxSearchIDs {
		msg := "representativeIds exceeds maximum of 100"
		return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "representativeIds",
			Message: msg,
		})
	}

	for _, id := range req.RepresentativeIDs {
		if strings.TrimSpace(id) == "" {
			msg := "each representativeId must be non-empty"
			return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "representativeIds",
				Message: msg,
			})
		}
	}

	return nil
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
