package shared

// DomainError is an error with a stable machine-readable code. The HTTP
// layer maps codes to status codes; messages are safe to show to clients.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// NewDomainError creates a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
	// ErrAlreadyExists is returned when a uniqueness rule is violated.
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	// ErrConcurrencyConflict is returned when an optimistic-lock save loses the race.
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)
