package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

// ConflictError reports a lost optimistic-concurrency race: the record was
// saved by someone else since it was loaded.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type UnsupportedCategoryError struct {
	Code string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported visa category %q", e.Code)
}

func NewUnsupportedCategoryError(code string) *UnsupportedCategoryError {
	return &UnsupportedCategoryError{Code: code}
}

func IsUnsupportedCategoryError(err error) (*UnsupportedCategoryError, bool) {
	var uce *UnsupportedCategoryError
	if stderrors.As(err, &uce) {
		return uce, true
	}
	return nil, false
}

// IncompleteApplicantDataError names every required applicant field that was
// missing so the caller can re-prompt for exactly those.
type IncompleteApplicantDataError struct {
	Category      string
	MissingFields []string
}

func (e *IncompleteApplicantDataError) Error() string {
	return fmt.Sprintf("incomplete applicant data for %s: missing %s", e.Category, strings.Join(e.MissingFields, ", "))
}

func NewIncompleteApplicantDataError(category string, missing ...string) *IncompleteApplicantDataError {
	return &IncompleteApplicantDataError{
		Category:      category,
		MissingFields: missing,
	}
}

func IsIncompleteApplicantDataError(err error) (*IncompleteApplicantDataError, bool) {
	var iae *IncompleteApplicantDataError
	if stderrors.As(err, &iae) {
		return iae, true
	}
	return nil, false
}

type InvalidStageTransitionError struct {
	Operation string
	Current   string
	Expected  string
}

func (e *InvalidStageTransitionError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("cannot %s while order is %s", e.Operation, e.Current)
	}
	return fmt.Sprintf("cannot %s while order is %s (expected %s)", e.Operation, e.Current, e.Expected)
}

func NewInvalidStageTransitionError(operation, current, expected string) *InvalidStageTransitionError {
	return &InvalidStageTransitionError{
		Operation: operation,
		Current:   current,
		Expected:  expected,
	}
}

func IsInvalidStageTransitionError(err error) (*InvalidStageTransitionError, bool) {
	var iste *InvalidStageTransitionError
	if stderrors.As(err, &iste) {
		return iste, true
	}
	return nil, false
}

type TerminalStateError struct {
	Status string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("order in state %s cannot advance", e.Status)
}

func NewTerminalStateError(status string) *TerminalStateError {
	return &TerminalStateError{Status: status}
}

func IsTerminalStateError(err error) (*TerminalStateError, bool) {
	var tse *TerminalStateError
	if stderrors.As(err, &tse) {
		return tse, true
	}
	return nil, false
}

// DownstreamError is a system fault in an external collaborator (gateway
// unreachable, validator crashed). Business negatives such as a declined
// payment are results, not DownstreamErrors.
type DownstreamError struct {
	Collaborator string
	Cause        error
}

func (e *DownstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failure: %v", e.Collaborator, e.Cause)
	}
	return fmt.Sprintf("%s failure", e.Collaborator)
}

func (e *DownstreamError) Unwrap() error {
	return e.Cause
}

func NewDownstreamError(collaborator string, cause error) *DownstreamError {
	return &DownstreamError{
		Collaborator: collaborator,
		Cause:        cause,
	}
}

func IsDownstreamError(err error) (*DownstreamError, bool) {
	var de *DownstreamError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}
