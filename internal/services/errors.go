package services

import "fmt"

// ValidationError reports malformed caller input. It is rejected before any
// external call; no record is created or mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced record that does not exist
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// OwnershipError reports an attempt to act on a record owned by another user
type OwnershipError struct {
	Resource string
	ID       uint
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s %d is not owned by the caller", e.Resource, e.ID)
}

// RateLimitedError reports that the caller exceeded the per-user generation quota
type RateLimitedError struct {
	Limit int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("generation limit of %d requests per window exceeded", e.Limit)
}
