package certification

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateActiveRequest  = errors.New("duplicate active request")
	ErrDuplicateRequestForType = errors.New("duplicate request for certification")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrAlreadyApproved         = errors.New("already approved")
	ErrAlreadyIssued           = errors.New("membership already issued")
	ErrForbiddenDelete         = errors.New("delete not allowed")
	ErrNotFound                = errors.New("not found")
	ErrNotActive               = errors.New("not active")
	ErrAssetUploadFailed       = errors.New("asset upload failed")
	ErrNotificationFailed      = errors.New("notification failed")
	ErrUnexpected              = errors.New("unexpected error")
)

var kinds = []error{
	ErrValidation,
	ErrDuplicateActiveRequest,
	ErrDuplicateRequestForType,
	ErrInvalidTransition,
	ErrAlreadyApproved,
	ErrAlreadyIssued,
	ErrForbiddenDelete,
	ErrNotFound,
	ErrNotActive,
	ErrAssetUploadFailed,
	ErrNotificationFailed,
	ErrUnexpected,
}

// Error is a taxonomy error with a client-facing message. Fields holds
// per-field validation messages when Kind is ErrValidation.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: "Validation failed!", Fields: fields}
}

// unexpected wraps err unless it already belongs to the taxonomy.
func unexpected(message string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return wrapError(ErrUnexpected, message, err)
}

// KindOf returns the taxonomy kind of err, ErrUnexpected for foreign errors.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrUnexpected
}

// MessageOf returns the client-facing message carried by err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong!"
}

// FieldsOf returns validation field messages, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
