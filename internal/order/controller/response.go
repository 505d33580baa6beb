package controller

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"visaflow/internal/dto"
	apperrors "visaflow/internal/errors"
)

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationDetails(err error) []apperrors.ValidationDetail {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.ValidationDetail{{Field: "body", Message: err.Error()}}
	}
	details := make([]apperrors.ValidationDetail, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fieldPath(fieldErr),
			Message: validationMessage(fieldErr),
		})
	}
	return details
}

// fieldPath drops the request type name from the namespace:
// "SubmitDocumentsRequest.documents[0].type" becomes "documents[0].type".
func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fieldErr.Field()
}

func validationMessage(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fieldErr.Param()
	case "max":
		return field + " must be at most " + fieldErr.Param()
	case "gte":
		return field + " must be greater than or equal to " + fieldErr.Param()
	case "lte":
		return field + " must be less than or equal to " + fieldErr.Param()
	case "oneof":
		return field + " must be one of " + fieldErr.Param()
	default:
		return field + " is invalid"
	}
}

func writeValidationError(w http.ResponseWriter, logger *zap.Logger, message string, details ...apperrors.ValidationDetail) {
	writeJSON(w, logger, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func writeErrorResponse(w http.ResponseWriter, logger *zap.Logger, traceID, orderID string, statusCode int, code, message string, details map[string]any) {
	writeJSON(w, logger, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		OrderID:   orderID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

// handleUseCaseError maps the typed errors onto HTTP statuses.
func handleUseCaseError(w http.ResponseWriter, logger *zap.Logger, traceID, orderID string, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		writeValidationError(w, logger, ve.Message, ve.Details...)
		return
	}

	if incomplete, ok := apperrors.IsIncompleteApplicantDataError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusBadRequest, "INCOMPLETE_APPLICANT_DATA", err.Error(), map[string]any{
			"category":      incomplete.Category,
			"missingFields": incomplete.MissingFields,
		})
		return
	}

	if unsupported, ok := apperrors.IsUnsupportedCategoryError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusBadRequest, "UNSUPPORTED_CATEGORY", err.Error(), map[string]any{
			"visaCategory": unsupported.Code,
		})
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if transition, ok := apperrors.IsInvalidStageTransitionError(err); ok {
		details := map[string]any{"operation": transition.Operation, "currentStatus": transition.Current}
		if transition.Expected != "" {
			details["expectedStatus"] = transition.Expected
		}
		writeErrorResponse(w, logger, traceID, orderID, http.StatusConflict, "INVALID_STAGE_TRANSITION", err.Error(), details)
		return
	}

	if _, ok := apperrors.IsTerminalStateError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusConflict, "TERMINAL_STATE", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		writeErrorResponse(w, logger, traceID, orderID, http.StatusConflict, "DEADLOCK", err.Error(), nil)
		return
	}

	if downstream, ok := apperrors.IsDownstreamError(err); ok {
		logger.Error("downstream failure", zap.String("collaborator", downstream.Collaborator), zap.Error(err))
		writeErrorResponse(w, logger, traceID, orderID, http.StatusBadGateway, "DOWNSTREAM_FAILURE",
			downstream.Collaborator+" is unavailable", map[string]any{"collaborator": downstream.Collaborator})
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	writeErrorResponse(w, logger, traceID, orderID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
