// Package errs defines the error taxonomy shared by the track-details pipeline.
//
// Every failure surfaced by the pipeline is an *Error carrying a stable Code,
// a Severity and a human-readable Message. Codes map onto sentinel values so
// callers can match with errors.Is without type assertions.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Severity tells the caller how surprising a failure is.
type Severity int

const (
	// SeverityCommon marks routine failures the platform reported explicitly.
	SeverityCommon Severity = iota
	// SeveritySuspicious marks syntactically valid but unexpected responses.
	SeveritySuspicious
	// SeverityFault marks internal or structural failures.
	SeverityFault
)

func (s Severity) String() string {
	switch s {
	case SeverityCommon:
		return "common"
	case SeveritySuspicious:
		return "suspicious"
	default:
		return "fault"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Error codes
const (
	CodeUnavailable         = "VIDEO_UNAVAILABLE"
	CodeUnplayable          = "VIDEO_UNPLAYABLE"
	CodePrivate             = "VIDEO_PRIVATE"
	CodeNotAnonymous        = "NOT_ANONYMOUS"
	CodeContentVerification = "CONTENT_VERIFICATION_REQUIRED"
	CodeProtocolViolation   = "PROTOCOL_VIOLATION"
	CodeMalformedResponse   = "MALFORMED_RESPONSE"
	CodeScriptDiscovery     = "SCRIPT_DISCOVERY_FAILED"
	CodeBadStatus           = "BAD_STATUS"
	CodeEmptyBody           = "EMPTY_BODY"
	CodeExtraction          = "EXTRACTION_FAILED"
)

var (
	// ErrVideoUnavailable indicates the platform refused the video with a reason.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrUnplayable indicates the video exists but cannot be played.
	ErrUnplayable = errors.New("video unplayable")
	// ErrPrivate indicates that the video is private.
	ErrPrivate = errors.New("video is private")
	// ErrNotAnonymous indicates the video cannot be viewed without an account.
	ErrNotAnonymous = errors.New("not viewable anonymously")
	// ErrAgeRestricted indicates the content verification step could not be passed.
	ErrAgeRestricted = errors.New("age restricted")
	// ErrProtocol indicates a response without a required structural field.
	ErrProtocol = errors.New("protocol violation")
	// ErrMalformedResponse indicates a body that is not the expected document shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrScriptDiscovery indicates the player script URL could not be found.
	ErrScriptDiscovery = errors.New("script discovery failed")
	// ErrBadStatus indicates a non-success HTTP status or an empty body.
	ErrBadStatus = errors.New("bad response status")
	// ErrExtraction indicates an unexpected failure while extracting track data.
	ErrExtraction = errors.New("extraction failed")
)

var sentinels = map[string]error{
	CodeUnavailable:         ErrVideoUnavailable,
	CodeUnplayable:          ErrUnplayable,
	CodePrivate:             ErrPrivate,
	CodeNotAnonymous:        ErrNotAnonymous,
	CodeContentVerification: ErrAgeRestricted,
	CodeProtocolViolation:   ErrProtocol,
	CodeMalformedResponse:   ErrMalformedResponse,
	CodeScriptDiscovery:     ErrScriptDiscovery,
	CodeBadStatus:           ErrBadStatus,
	CodeEmptyBody:           ErrBadStatus,
	CodeExtraction:          ErrExtraction,
}

// userFacing lists codes whose Message is meant to be shown to end users as is.
var userFacing = map[string]bool{
	CodeUnavailable:         true,
	CodeUnplayable:          true,
	CodePrivate:             true,
	CodeNotAnonymous:        true,
	CodeContentVerification: true,
	CodeMalformedResponse:   true,
}

// Error represents a structured error with code, severity and details.
type Error struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  any      `json:"details,omitempty"`
	Err      error    `json:"-"`
}

// Error implements the error interface. Details are left out on purpose:
// they usually hold whole response bodies.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel bound to e's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
		Cause string `json:"cause,omitempty"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
		Cause: cause,
	})
}

// New creates a new Error with the given code, severity and message.
func New(code string, severity Severity, message string, details ...any) *Error {
	e := &Error{
		Code:     code,
		Severity: severity,
		Message:  message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// Wrap creates a new Error caused by err.
func Wrap(err error, code string, severity Severity, message string, details ...any) *Error {
	e := New(code, severity, message, details...)
	e.Err = err
	return e
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsUserFacing returns true if err carries a message meant for end users.
func IsUserFacing(err error) bool {
	e, ok := As(err)
	return ok && userFacing[e.Code]
}

// IsProtocol returns true if err reports a structurally invalid response.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsMalformed returns true if err reports an unparsable response body.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// SeverityOf returns the severity of err, or SeverityFault for untyped errors.
func SeverityOf(err error) Severity {
	if e, ok := As(err); ok {
		return e.Severity
	}
	return SeverityFault
}
