package service

import "errors"

var (
	// Input errors: reported to the caller, no state mutated.
	ErrEmptyQuery      = errors.New("query signal is empty")
	ErrEmptySymptoms   = errors.New("symptoms_text is required")
	ErrUnknownMedicine = errors.New("selected_medicine is not in the catalog")

	// ErrCatalogUnavailable wraps catalog accessor failures; retryable.
	ErrCatalogUnavailable = errors.New("medicine catalog unavailable")

	// ErrPersistence wraps learning store failures. The triggering feedback
	// event is rejected; committed state is unaffected.
	ErrPersistence = errors.New("learning store write failed")
)
