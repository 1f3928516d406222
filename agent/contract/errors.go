package contract

import "errors"

var (
	ErrModelInvoke    = errors.New("model invoke failed")
	ErrEmptyResponse  = errors.New("model returned an empty response")
	ErrPromptMissing  = errors.New("required prompt is missing")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidCompany = errors.New("company name is empty")
	ErrUnknownRole    = errors.New("unknown agent role")
)
