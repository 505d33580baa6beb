package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"visaflow/internal/domain"
	"visaflow/internal/dto"
	apperrors "visaflow/internal/errors"
	"visaflow/internal/matching"
)

type WorkflowUseCase interface {
	StartEvaluation(ctx context.Context, in dto.StartEvaluationInput) (*dto.StartEvaluationResult, error)
	MatchRepresentative(ctx context.Context, orderID string, prefs matching.Preferences) (*dto.MatchResult, error)
	ProcessPayment(ctx context.Context, orderID, method string, data map[string]any) (*dto.PaymentResult, error)
	SubmitDocuments(ctx context.Context, orderID string, docs []domain.Document) (*dto.DocumentSubmissionResult, error)
	TrackProgress(ctx context.Context, orderID string) (*dto.ProgressResult, error)
	Cancel(ctx context.Context, orderID, reason string) (*dto.CancelResult, error)
	Reevaluate(ctx context.Context, orderID string, data map[string]any, detailed bool) (*domain.EvaluationResult, error)
	CompleteProcessing(ctx context.Context, orderID string) (*dto.CompleteResult, error)
	SubmitMatchFeedback(ctx context.Context, matchID string, rating int, comment string) (*domain.Match, error)
}

type WorkflowController struct {
	useCase  WorkflowUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewWorkflowController(useCase WorkflowUseCase, logger *zap.Logger) *WorkflowController {
	return &WorkflowController{
		useCase:  useCase,
		validate: newValidator(),
		logger:   logger,
	}
}

// Register mounts the order and match routes on r.
func (c *WorkflowController) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", c.StartEvaluation)
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/progress", c.TrackProgress)
			r.Post("/match", c.MatchRepresentative)
			r.Post("/payment", c.ProcessPayment)
			r.Post("/documents", c.SubmitDocuments)
			r.Post("/cancel", c.Cancel)
			r.Post("/reevaluate", c.Reevaluate)
			r.Post("/complete", c.CompleteProcessing)
		})
	})
	r.Post("/matches/{matchId}/feedback", c.SubmitMatchFeedback)
}

func (c *WorkflowController) StartEvaluation(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.StartEvaluationRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	result, err := c.useCase.StartEvaluation(r.Context(), dto.StartEvaluationInput{
		UserID:        req.UserID,
		Category:      req.VisaCategory,
		Kind:          req.ApplicationKind,
		Detailed:      req.DetailedReport,
		ApplicantData: req.ApplicantData,
		Options: domain.ServiceOptions{
			IncludeLegalMatching:  req.ServiceOptions.IncludeLegalMatching,
			IncludeDocumentReview: req.ServiceOptions.IncludeDocumentReview,
			UrgentProcessing:      req.ServiceOptions.UrgentProcessing,
			ConsultationIncluded:  req.ServiceOptions.ConsultationIncluded,
		},
	})
	if err != nil {
		handleUseCaseError(w, logger, traceID, "", err)
		return
	}

	writeJSON(w, logger, http.StatusCreated, dto.StartEvaluationResponse{
		TraceID:          traceID,
		OrderID:          result.OrderID,
		EvaluationResult: result.Evaluation,
		NextStatus:       result.NextStatus,
		EstimatedCost:    result.EstimatedCost,
		Timestamp:        time.Now().UTC(),
	})
}

func (c *WorkflowController) MatchRepresentative(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.MatchRepresentativeRequest
	if !c.decodeOptional(w, r, logger, &req) {
		return
	}

	result, err := c.useCase.MatchRepresentative(r.Context(), orderID, matching.Preferences{
		Languages:                 req.Languages,
		Location:                  req.Location,
		MaxBudget:                 req.MaxBudget,
		MinRating:                 req.MinRating,
		MinExperienceYears:        req.MinExperienceYears,
		PreferredRepresentativeID: req.PreferredRepresentativeID,
	})
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.MatchResponse{
		TraceID:    traceID,
		OrderID:    result.OrderID,
		Match:      result.Match,
		TotalCost:  result.TotalCost,
		NextStatus: result.NextStatus,
		Timestamp:  time.Now().UTC(),
	})
}

func (c *WorkflowController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.ProcessPaymentRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	result, err := c.useCase.ProcessPayment(r.Context(), orderID, req.Method, req.PaymentData)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	response := dto.PaymentResponse{
		TraceID:           traceID,
		OrderID:           result.OrderID,
		Success:           result.Rejection == nil,
		PaymentID:         result.PaymentID,
		NextStatus:        result.NextStatus,
		RequiredDocuments: result.RequiredDocuments,
		Rejection:         result.Rejection,
		Timestamp:         time.Now().UTC(),
	}

	statusCode := http.StatusOK
	if result.Rejection != nil {
		statusCode = http.StatusPaymentRequired
	}
	writeJSON(w, logger, statusCode, response)
}

func (c *WorkflowController) SubmitDocuments(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.SubmitDocumentsRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{
			Type:        d.Type,
			FileName:    d.FileName,
			ContentType: d.ContentType,
			SizeBytes:   d.SizeBytes,
			Translated:  d.Translated,
			Apostilled:  d.Apostilled,
		}
	}

	result, err := c.useCase.SubmitDocuments(r.Context(), orderID, docs)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	statusCode := http.StatusOK
	if !result.Success {
		statusCode = http.StatusUnprocessableEntity
	}
	writeJSON(w, logger, statusCode, dto.DocumentSubmissionResponse{
		TraceID:                 traceID,
		OrderID:                 result.OrderID,
		Success:                 result.Success,
		NextStatus:              result.NextStatus,
		SubmissionID:            result.SubmissionID,
		EstimatedCompletionDate: result.EstimatedCompletionDate,
		Missing:                 emptyIfNil(result.Missing),
		Invalid:                 emptyIfNil(result.Invalid),
		Recommendations:         emptyIfNil(result.Recommendations),
		Timestamp:               time.Now().UTC(),
	})
}

func (c *WorkflowController) TrackProgress(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	result, err := c.useCase.TrackProgress(r.Context(), orderID)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.ProgressResponse{
		TraceID:            traceID,
		OrderID:            result.OrderID,
		Status:             result.Status,
		ProgressPercentage: result.ProgressPercentage,
		DaysInProgress:     result.DaysInProgress,
		Timeline:           result.Timeline,
		Pricing:            result.Pricing,
		MatchID:            result.MatchID,
		PaymentID:          result.PaymentID,
		Timestamp:          time.Now().UTC(),
	})
}

func (c *WorkflowController) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.CancelRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	result, err := c.useCase.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.StatusResponse{
		TraceID:     traceID,
		OrderID:     result.OrderID,
		Status:      result.Status,
		CancelledAt: result.CancelledAt,
		Timestamp:   time.Now().UTC(),
	})
}

func (c *WorkflowController) Reevaluate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	var req dto.ReevaluateRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	result, err := c.useCase.Reevaluate(r.Context(), orderID, req.ApplicantData, req.DetailedReport)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.EvaluationResponse{
		TraceID:          traceID,
		OrderID:          orderID,
		EvaluationResult: result,
		Timestamp:        time.Now().UTC(),
	})
}

func (c *WorkflowController) CompleteProcessing(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("orderId", orderID))

	result, err := c.useCase.CompleteProcessing(r.Context(), orderID)
	if err != nil {
		handleUseCaseError(w, logger, traceID, orderID, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.StatusResponse{
		TraceID:   traceID,
		OrderID:   result.OrderID,
		Status:    result.Status,
		Timestamp: time.Now().UTC(),
	})
}

func (c *WorkflowController) SubmitMatchFeedback(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	matchID := chi.URLParam(r, "matchId")
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("matchId", matchID))

	var req dto.MatchFeedbackRequest
	if !c.decode(w, r, logger, &req) {
		return
	}

	m, err := c.useCase.SubmitMatchFeedback(r.Context(), matchID, req.Rating, req.Comment)
	if err != nil {
		handleUseCaseError(w, logger, traceID, "", err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dto.MatchFeedbackResponse{
		TraceID:   traceID,
		Match:     m,
		Timestamp: time.Now().UTC(),
	})
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and returns false when the request is unusable.
func (c *WorkflowController) decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		writeValidationError(w, logger, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return c.check(w, logger, dst)
}

// decodeOptional is decode for endpoints where an empty body is allowed.
func (c *WorkflowController) decodeOptional(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return c.check(w, logger, dst)
	}
	return c.decode(w, r, logger, dst)
}

func (c *WorkflowController) check(w http.ResponseWriter, logger *zap.Logger, dst any) bool {
	if err := c.validate.Struct(dst); err != nil {
		details := validationDetails(err)
		logger.Warn("request validation failed", zap.Int("violations", len(details)))
		writeValidationError(w, logger, "validation failed", details...)
		return false
	}
	return true
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
