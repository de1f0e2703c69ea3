package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

var ErrErrorResponse = fmt.Errorf("error response")
var ErrMalformedEnvelope = fmt.Errorf("malformed envelope")
var ErrEmptyDocument = fmt.Errorf("empty document")
var ErrUnknownType = fmt.Errorf("unknown type")
var ErrDuplicateResource = fmt.Errorf("duplicate resource")
var ErrMalformedAttributes = fmt.Errorf("malformed attributes")
var ErrMalformedRelationship = fmt.Errorf("malformed relationship")
var ErrMalformedLink = fmt.Errorf("malformed link")
var ErrMalformedDynamicValue = fmt.Errorf("malformed dynamic value")
var ErrMissingRelationship = fmt.Errorf("missing relationship")
var ErrTypeMismatch = fmt.Errorf("type mismatch")

type myError struct {
	msg    string
	target error
	cause  error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }
func (m myError) Unwrap() error        { return m.cause }

func newError(target error, msg string, cause error) error {
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Error())
	}

	return &myError{
		msg:    fmt.Sprintf("%s (%s)", msg, target.Error()),
		target: target,
		cause:  cause,
	}
}

func NewMalformedEnvelopeError(msg string, cause error) error {
	return newError(ErrMalformedEnvelope, msg, cause)
}

func NewEmptyDocumentError() error {
	return newError(ErrEmptyDocument, "document contains no primary data", nil)
}

func NewDuplicateResourceError(resource fmt.Stringer) error {
	return newError(ErrDuplicateResource, fmt.Sprintf("resource %s occurs more than once", resource), nil)
}

func NewMalformedAttributesError(resource fmt.Stringer, cause error) error {
	return newError(ErrMalformedAttributes, fmt.Sprintf("failed to decode attributes of %s", resource), cause)
}

func NewMalformedRelationshipError(msg string, cause error) error {
	return newError(ErrMalformedRelationship, msg, cause)
}

func NewMalformedLinkError(msg string) error {
	return newError(ErrMalformedLink, msg, nil)
}

func NewMalformedDynamicValueError(msg string, cause error) error {
	return newError(ErrMalformedDynamicValue, msg, cause)
}

func NewMissingRelationshipError(resource fmt.Stringer) error {
	return newError(ErrMissingRelationship, fmt.Sprintf("resource %s is not part of the document", resource), nil)
}

func NewTypeMismatchError(resource fmt.Stringer, want, got any) error {
	return newError(ErrTypeMismatch, fmt.Sprintf("attributes of %s are %T, not %T", resource, got, want), nil)
}

// UnknownTypeError is returned when a resource type has no decoder in the registry
type UnknownTypeError struct {
	TypeName string
}

func (ute *UnknownTypeError) Error() string {
	return fmt.Sprintf("no attribute decoder registered for type %q (%s)", ute.TypeName, ErrUnknownType.Error())
}

func (ute *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

func NewUnknownTypeError(typeName string) error {
	return &UnknownTypeError{TypeName: typeName}
}

// ErrorSource points at the part of the request document that caused an error
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// ErrorObject is a single entry of an error envelope
type ErrorObject struct {
	ID     string          `json:"id,omitempty"`
	Status string          `json:"status"`
	Code   string          `json:"code,omitempty"`
	Title  string          `json:"title"`
	Detail *string         `json:"detail,omitempty"`
	Source *ErrorSource    `json:"source,omitempty"`
	Meta   json.RawMessage `json:"meta,omitempty"`
}

func (eo ErrorObject) String() string {
	if eo.Detail != nil {
		return fmt.Sprintf("[%s] %s: %s", eo.Status, eo.Title, *eo.Detail)
	}
	return fmt.Sprintf("[%s] %s", eo.Status, eo.Title)
}

func (eo *ErrorObject) UnmarshalJSON(data []byte) error {
	contents := struct {
		ID     string          `json:"id"`
		Status *string         `json:"status"`
		Code   string          `json:"code"`
		Title  *string         `json:"title"`
		Detail *string         `json:"detail"`
		Source *ErrorSource    `json:"source"`
		Meta   json.RawMessage `json:"meta"`
	}{}

	err := json.Unmarshal(data, &contents)
	if err != nil {
		return err
	}

	if contents.Status == nil || contents.Title == nil {
		return fmt.Errorf("error objects must have a status and a title")
	}

	eo.ID = contents.ID
	eo.Status = *contents.Status
	eo.Code = contents.Code
	eo.Title = *contents.Title
	eo.Detail = contents.Detail
	eo.Source = contents.Source
	eo.Meta = contents.Meta

	return nil
}

// ErrorResponse carries the entries of a document that was an error envelope
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

func (er *ErrorResponse) Error() string {
	msgs := make([]string, 0, len(er.Errors))
	for _, e := range er.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Sprintf("%s: %s", ErrErrorResponse.Error(), strings.Join(msgs, ", "))
}

func (er *ErrorResponse) Is(target error) bool { return target == ErrErrorResponse }

// NewErrorResponseFromJSON returns an *ErrorResponse if body is an error envelope, or
// false if it is not
func NewErrorResponseFromJSON(body []byte) (*ErrorResponse, bool) {
	envelope := struct {
		Errors *[]ErrorObject `json:"errors"`
	}{}

	err := json.Unmarshal(body, &envelope)
	if err != nil || envelope.Errors == nil {
		return nil, false
	}

	return &ErrorResponse{Errors: *envelope.Errors}, true
}
