package domain

import "errors"

// Sentinel errors shared across layers.
var (
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord is returned when a raw attendance lacks a key the
	// API always sends (event, timeslot, person, referrer, contact arrays).
	// The whole batch is rejected.
	ErrMalformedRecord = errors.New("malformed attendance record")

	ErrEmptyBatch     = errors.New("no attendances fetched")
	ErrRunInProgress  = errors.New("an ingest run is already in progress")
	ErrUnauthorized   = errors.New("unauthorized")
)
