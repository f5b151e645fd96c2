// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or duplicate-key conflict.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates the request payload failed validation.
var ErrValidation = errors.New("validation failed")
