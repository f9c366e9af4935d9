package domain

import "leadflow_backend/platform/apperr"

// Workflow error codes exposed to API clients.
const (
	CodePermissionDenied      apperr.Code = "PERMISSION_DENIED"
	CodeRemarksRequired       apperr.Code = "REMARKS_REQUIRED"
	CodeAttachmentsNotAllowed apperr.Code = "ATTACHMENTS_NOT_ALLOWED"
	CodeAlreadyCompleted      apperr.Code = "ALREADY_COMPLETED"
	CodeLeadClosed            apperr.Code = "LEAD_CLOSED"
	CodeDuplicateOrderIndex   apperr.Code = "DUPLICATE_ORDER_INDEX"
	CodeAlreadyInitialized    apperr.Code = "ALREADY_INITIALIZED"
	CodeInvalidState          apperr.Code = "INVALID_STATE"
)

func ErrPermissionDenied(message string) *apperr.Error {
	return apperr.Forbidden(message).WithCode(CodePermissionDenied)
}

func ErrRemarksRequired(stepName string) *apperr.Error {
	return apperr.Validation("remarks are required to complete this step").
		WithCode(CodeRemarksRequired).
		WithDetails(map[string]string{"step": stepName})
}

func ErrAttachmentsNotAllowed(stepName string) *apperr.Error {
	return apperr.Validation("attachments are not allowed on this step").
		WithCode(CodeAttachmentsNotAllowed).
		WithDetails(map[string]string{"step": stepName})
}

func ErrAlreadyCompleted() *apperr.Error {
	return apperr.Conflict("step is already completed").WithCode(CodeAlreadyCompleted)
}

func ErrLeadClosed() *apperr.Error {
	return apperr.Forbidden("lead is closed").WithCode(CodeLeadClosed)
}

func ErrDuplicateOrderIndex(orderIndex int) *apperr.Error {
	return apperr.Conflict("order index is already used by an active template").
		WithCode(CodeDuplicateOrderIndex).
		WithDetails(map[string]int{"orderIndex": orderIndex})
}

func ErrAlreadyInitialized() *apperr.Error {
	return apperr.Conflict("lead timeline is already initialized").WithCode(CodeAlreadyInitialized)
}

func ErrInvalidState(message string) *apperr.Error {
	return apperr.Validation(message).WithCode(CodeInvalidState)
}

// ErrLeadNotFound, ErrTemplateNotFound and ErrStepNotFound share the NOT_FOUND code.
func ErrLeadNotFound() *apperr.Error     { return apperr.NotFound("lead not found") }
func ErrTemplateNotFound() *apperr.Error { return apperr.NotFound("step template not found") }
func ErrStepNotFound() *apperr.Error     { return apperr.NotFound("lead step not found") }
