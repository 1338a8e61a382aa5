package projects

import "errors"

var (
	ErrNotFound       = errors.New("project not found")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrInvalidProject = errors.New("invalid project")
	ErrDuplicateCode  = errors.New("project code already exists")
)
