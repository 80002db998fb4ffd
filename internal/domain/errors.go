package domain

import "errors"

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrInvalidTitle          = errors.New("invalid title")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidPriority       = errors.New("invalid priority")
	ErrInvalidComplexity     = errors.New("invalid complexity")
	ErrInvalidApprovalStatus = errors.New("invalid approval status")
	ErrInvalidEffort         = errors.New("invalid effort value")
	ErrInvalidFieldName      = errors.New("invalid custom field name")
	ErrInvalidFieldType      = errors.New("invalid custom field type")
	ErrInvalidParentID       = errors.New("invalid parent id")
)
