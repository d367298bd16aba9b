package group

import "errors"

var (
	ErrNotFound      = errors.New("group: not found")
	ErrAlreadyExists = errors.New("group: already exists")
	ErrInvalidInput  = errors.New("group: invalid input")
	ErrConflict      = errors.New("group: conflict")
)
