package errors

import "errors"

var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrCompanyNotFound          = errors.New("company not found")
	ErrDistributionNotFound     = errors.New("distribution not found")
	ErrDistributionExists       = errors.New("distribution already exists for application and company")
	ErrInvalidTransition        = errors.New("invalid distribution status transition")
	ErrStaleDistribution        = errors.New("distribution changed concurrently")
	ErrInvalidDistributionInput = errors.New("invalid distribution input")
	ErrCompanyAtCapacity        = errors.New("company reached daily application capacity")
)
