package quitus

import "errors"

var (
	// ErrTemplateNotFound is returned when the configured template is missing
	ErrTemplateNotFound = errors.New("quitus template not found")

	// ErrInvalidTemplate is returned when the template has no sheet
	ErrInvalidTemplate = errors.New("invalid quitus template")
)
