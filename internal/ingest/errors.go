package ingest

import "errors"

var (
	// ErrIngestionFailed wraps every error Run returns.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrSourceRequired is returned when no Source is provided.
	ErrSourceRequired = errors.New("source required")

	// ErrStoreRequired is returned when no Store is provided.
	ErrStoreRequired = errors.New("store required")
)
