package models

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrDeadlinePassed   = errors.New("order deadline passed")
	ErrOrderLocked      = errors.New("order is locked")
	ErrSignatureInvalid = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("payment provider not configured")
)
