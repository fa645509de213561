package config

import "errors"

var (
	// ErrNoStartURLs is returned when a crawl is requested without start URLs
	ErrNoStartURLs = errors.New("no start URLs provided")
	// ErrInvalidMaxDepth is returned when max_depth is negative
	ErrInvalidMaxDepth = errors.New("max_depth must not be negative")
	// ErrInvalidMaxPages is returned when max_pages is not greater than 0
	ErrInvalidMaxPages = errors.New("max_pages must be greater than 0")
	// ErrInvalidRate is returned when the request rate is not greater than 0
	ErrInvalidRate = errors.New("rate must be greater than 0")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request_timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrEmptyDatabasePath is returned when database_path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
)
