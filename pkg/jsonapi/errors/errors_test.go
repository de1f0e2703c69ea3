package errors

import (
	goerrors "errors"
	"testing"

	"github.com/matryer/is"
)

func TestThatErrorEnvelopeIsRecognised(t *testing.T) {
	is := is.New(t)

	response, ok := NewErrorResponseFromJSON([]byte(errorEnvelopeJSON))
	is.True(ok)
	is.Equal(len(response.Errors), 1)

	e := response.Errors[0]
	is.Equal(e.Status, "422")
	is.Equal(e.Title, "Invalid Attribute")
	is.True(e.Detail != nil)
	is.Equal(*e.Detail, "First name must contain at least two characters.")
	is.Equal(e.Source.Pointer, "/data/attributes/firstName")

	is.True(goerrors.Is(response, ErrErrorResponse))
}

func TestThatErrorObjectWithoutTitleIsNotAnErrorEnvelope(t *testing.T) {
	is := is.New(t)

	_, ok := NewErrorResponseFromJSON([]byte(`{"errors":[{"status":"500"}]}`))
	is.True(!ok) // title is required
}

func TestThatDataDocumentIsNotAnErrorEnvelope(t *testing.T) {
	is := is.New(t)

	_, ok := NewErrorResponseFromJSON([]byte(`{"data":[]}`))
	is.True(!ok)

	_, ok = NewErrorResponseFromJSON([]byte(`[1, 2]`))
	is.True(!ok)
}

func TestUnknownTypeErrorCanBeUnwrapped(t *testing.T) {
	is := is.New(t)

	err := NewUnknownTypeError("people")
	is.True(goerrors.Is(err, ErrUnknownType))

	var ute *UnknownTypeError
	is.True(goerrors.As(err, &ute))
	is.Equal(ute.TypeName, "people")
}

func TestThatWrappedErrorsMatchTheirSentinel(t *testing.T) {
	is := is.New(t)

	cause := goerrors.New("boom")
	err := NewMalformedEnvelopeError("failed to parse document", cause)

	is.True(goerrors.Is(err, ErrMalformedEnvelope))
	is.True(!goerrors.Is(err, ErrEmptyDocument))
	is.True(goerrors.Is(err, cause))
	is.Equal(err.Error(), "failed to parse document: boom (malformed envelope)")
}

var errorEnvelopeJSON string = `{
  "errors": [
    {
      "status": "422",
      "source": { "pointer": "/data/attributes/firstName" },
      "title":  "Invalid Attribute",
      "detail": "First name must contain at least two characters."
    }
  ]
}`
