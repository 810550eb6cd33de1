package clierr

// Type categorizes a CLI-facing error for consistent messaging & exit codes.
type Type string

const (
	Validation    Type = "validation"     // bad flags, config, or pasted input
	NotAuthorized Type = "not_authorized" // no credential yet, run authorize
	Transport     Type = "transport"      // network trouble, safe to retry later
	Provider      Type = "provider"       // the provider rejected us, re-authorize
	Internal      Type = "internal"       // everything else
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }
