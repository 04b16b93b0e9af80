package errors

// ErrorCode identifies a failure class. Packages define their own
// prefixed codes and alias the shared ones they surface.
type ErrorCode string

// Error is a coded error with an optional cause and data payload.
// Match codes with HasCode; it resolves the outermost coded error
// in a wrapped chain.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates coded errors. Each package holds its own via New.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
