package mail

import "errors"

var (
	// ErrStartTLSUnsupported is returned when the relay does not offer STARTTLS
	// on a port that is not implicit TLS.
	ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")
	// ErrAuthUnsupported is returned when the relay advertises no usable AUTH mechanism.
	ErrAuthUnsupported = errors.New("smtp server does not support a known AUTH mechanism")
	// ErrInvalidAddress is returned when the relay account is not a mail address.
	ErrInvalidAddress = errors.New("invalid sender address")
)

// DeliveryError reports a failed step of the SMTP session. Its message is the
// underlying cause's description.
type DeliveryError struct {
	// Op is the session step that failed: compose, connect, greeting,
	// starttls, auth, send.
	Op  string
	Err error
}

func (e *DeliveryError) Error() string {
	return e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
