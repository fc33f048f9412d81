package contract

import "errors"

var (
	ErrModelInvoke      = errors.New("model invoke failed")
	ErrSchemaViolation  = errors.New("model response violates schema")
	ErrPromptMissing    = errors.New("required prompt is missing")
	ErrValidation       = errors.New("validation failed")
	ErrConsentViolation = errors.New("personal data write without consent")
	ErrStateCorruption  = errors.New("agent state is corrupted")
	ErrLeadNotFound     = errors.New("lead not found")
)
