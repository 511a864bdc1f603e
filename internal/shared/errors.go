package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrInvalidPlaylistURL = fmt.Errorf("invalid playlist URL")

	// Cache errors
	ErrCacheIntegrity = fmt.Errorf("cache entry is malformed")
	ErrCacheMiss      = fmt.Errorf("cache entry not found")

	// Descriptor errors
	ErrInvalidDescriptor = fmt.Errorf("invalid playlist descriptor")
	ErrDuplicatePlaylist = fmt.Errorf("duplicate playlist")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ServiceError reports a failed call to an external music service.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// NewServiceError wraps err, returning it unchanged when it already is a [ServiceError].
func NewServiceError(service, op string, err error) error {
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches [ErrServiceUnavailable].
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// IntegrityError reports a cache entry missing data the caller requires.
type IntegrityError struct {
	Key    string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cache entry %q: %s", e.Key, e.Detail)
}

// Is matches [ErrCacheIntegrity].
func (e *IntegrityError) Is(target error) bool {
	return target == ErrCacheIntegrity
}
