package decoder

import (
	"context"
	goerrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/diwise/jsonapi/pkg/jsonapi/document"
	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/registry"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/values"
	"github.com/matryer/is"
)

type Article struct {
	Title string `json:"title"`
}

type Person struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type Comment struct {
	Body string `json:"body"`
}

func testRegistry() *registry.Registry {
	return registry.New(
		registry.Type[Article]("articles"),
		registry.Type[Person]("people"),
		registry.Type[Comment]("comments"),
	)
}

func TestResourceWithRelations(t *testing.T) {
	is, ctx := testSetup(t)

	doc, err := Decode[Article](ctx, []byte(articlesJSON), testRegistry())
	is.NoErr(err)
	is.Equal(doc.Len(), 1)

	article := doc.Primary()[0]
	is.Equal(article.ID(), types.NewIdentifier("1", "articles"))
	is.Equal(article.Attributes().Title, "JSON:API paints my bikeshed!")

	comments := article.Relationship("comments")
	is.Equal(comments, []types.Identifier{
		types.NewIdentifier("5", "comments"),
		types.NewIdentifier("12", "comments"),
	})

	comment, err := document.Resolve[Comment](doc, comments[0])
	is.NoErr(err)
	is.Equal(comment.Attributes().Body, "First!")

	author, err := document.Resolve[Person](doc, article.Relationship("author")[0])
	is.NoErr(err)
	is.Equal(*author.Attributes().FirstName, "Dan")
	is.Equal(*author.Attributes().LastName, "Gebhardt")
}

func TestThatGraphCanBeWalkedTransitively(t *testing.T) {
	is, ctx := testSetup(t)

	doc, err := Decode[Article](ctx, []byte(articlesJSON), testRegistry())
	is.NoErr(err)

	comment, err := document.Resolve[Comment](doc, doc.Primary()[0].Relationship("comments")[1])
	is.NoErr(err)

	author, err := document.Resolve[Person](doc, comment.Relationship("author")[0])
	is.NoErr(err)
	is.Equal(author.ID(), types.NewIdentifier("9", "people"))

	// the author of the first comment is not included in the document
	first, _ := document.Resolve[Comment](doc, doc.Primary()[0].Relationship("comments")[0])
	_, err = document.Resolve[Person](doc, first.Relationship("author")[0])
	is.True(goerrors.Is(err, errors.ErrMissingRelationship))
}

func TestUnknownTypeFailsTheWholeDecode(t *testing.T) {
	is, ctx := testSetup(t)

	reg := registry.New(
		registry.Type[Article]("articles"),
		registry.Type[Comment]("comments"),
	)

	doc, err := Decode[Article](ctx, []byte(articlesJSON), reg)
	is.True(doc == nil)
	is.True(goerrors.Is(err, errors.ErrUnknownType))

	var ute *errors.UnknownTypeError
	is.True(goerrors.As(err, &ute))
	is.Equal(ute.TypeName, "people")
}

func TestJsonWithError(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Article](ctx, []byte(errorJSON), testRegistry())
	is.True(goerrors.Is(err, errors.ErrErrorResponse))

	var response *errors.ErrorResponse
	is.True(goerrors.As(err, &response))
	is.Equal(len(response.Errors), 1)
	is.Equal(response.Errors[0].Status, "422")
	is.Equal(response.Errors[0].Title, "Invalid Attribute")
}

func TestThatErrorsTakePrecedenceOverData(t *testing.T) {
	is, ctx := testSetup(t)

	body := `{"errors": [{"status": "500", "title": "Oops"}], "data": [{"type": "articles", "id": "1"}]}`

	_, err := Decode[Article](ctx, []byte(body), registry.New())
	is.True(goerrors.Is(err, errors.ErrErrorResponse))
}

func TestEmptyDocument(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Article](ctx, []byte(`{"data": [], "included": []}`), testRegistry())
	is.True(goerrors.Is(err, errors.ErrEmptyDocument))
}

func TestMalformedEnvelopes(t *testing.T) {
	is, ctx := testSetup(t)

	bodies := []string{
		`{}`,
		`{"data": null}`,
		`{"data": {"type": "articles", "id": "1"}}`,
		`{"data": [{"type": "articles"}]}`,
		`{"data": [{"type": "articles", "id": "1"}], "included": {}}`,
		`{"errors": [{"status": "500"}]}`,
		`[]`,
		`not json`,
	}

	for _, body := range bodies {
		_, err := Decode[Article](ctx, []byte(body), testRegistry())
		is.True(goerrors.Is(err, errors.ErrMalformedEnvelope))
	}
}

func TestMalformedRelationshipFailsTheDecode(t *testing.T) {
	is, ctx := testSetup(t)

	body := `{"data": [{"type": "articles", "id": "1", "relationships": {"author": {"data": "people_9"}}}]}`

	_, err := Decode[Article](ctx, []byte(body), testRegistry())
	is.True(goerrors.Is(err, errors.ErrMalformedRelationship))
}

func TestMalformedAttributesFailTheDecode(t *testing.T) {
	is, ctx := testSetup(t)

	body := `{"data": [{"type": "articles", "id": "1", "attributes": {"title": 42}}]}`

	_, err := Decode[Article](ctx, []byte(body), testRegistry())
	is.True(goerrors.Is(err, errors.ErrMalformedAttributes))
}

func TestSingleAndArrayLinkageDecodeIdentically(t *testing.T) {
	is, ctx := testSetup(t)

	single := `{"data": [{"type": "articles", "id": "1", "relationships": {"author": {"data": {"type": "people", "id": "9"}}}}]}`
	array := `{"data": [{"type": "articles", "id": "1", "relationships": {"author": {"data": [{"type": "people", "id": "9"}]}}}]}`

	d1, err := Decode[Article](ctx, []byte(single), testRegistry())
	is.NoErr(err)
	d2, err := Decode[Article](ctx, []byte(array), testRegistry())
	is.NoErr(err)

	is.Equal(d1.Primary()[0].Relationship("author"), d2.Primary()[0].Relationship("author"))
}

func TestDuplicateResourceLastOccurrenceWins(t *testing.T) {
	is, ctx := testSetup(t)

	doc, err := Decode[Article](ctx, []byte(duplicateJSON), testRegistry())
	is.NoErr(err)

	is.Equal(doc.Len(), 1)
	is.Equal(doc.Primary()[0].Attributes().Title, "included version")
	is.Equal(len(doc.Resources()), 1)
}

func TestDuplicateResourceCanBeRejected(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Article](ctx, []byte(duplicateJSON), testRegistry(), RejectDuplicates())
	is.True(goerrors.Is(err, errors.ErrDuplicateResource))
}

func TestVerifyRelationships(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Article](ctx, []byte(articlesJSON), testRegistry(), VerifyRelationships())
	is.True(goerrors.Is(err, errors.ErrMissingRelationship)) // comment 5 refers to people_2

	complete := strings.Replace(articlesJSON, `"id": "2"`, `"id": "9"`, 1)
	_, err = Decode[Article](ctx, []byte(complete), testRegistry(), VerifyRelationships())
	is.NoErr(err)
}

func TestConcurrentDecodeGivesSameDocument(t *testing.T) {
	is, ctx := testSetup(t)

	body := manyArticles(50)

	sequential, err := Decode[Article](ctx, body, testRegistry())
	is.NoErr(err)

	parallel, err := Decode[Article](ctx, body, testRegistry(), Concurrency(8))
	is.NoErr(err)

	is.Equal(sequential.Len(), parallel.Len())
	for idx, p := range parallel.Primary() {
		s := sequential.Primary()[idx]
		is.Equal(p.ID(), s.ID())
		is.Equal(p.Attributes(), s.Attributes())
		is.Equal(p.Relationship("comments"), s.Relationship("comments"))
	}
	is.Equal(sequential.Resources(), parallel.Resources())
}

func TestConcurrentDecodeReportsErrors(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Article](ctx, manyArticles(20), registry.New(registry.Type[Article]("articles")), Concurrency(4))
	is.True(goerrors.Is(err, errors.ErrUnknownType))
}

func TestDocumentLinksAndMeta(t *testing.T) {
	is, ctx := testSetup(t)

	doc, err := Decode[Article](ctx, []byte(articlesJSON), testRegistry())
	is.NoErr(err)

	related, ok := doc.Meta().Get("related")
	is.True(ok)
	is.Equal(related, "http://example.com/articles/1/comments")

	self, ok := doc.Primary()[0].Links().Get("self")
	is.True(ok)
	is.True(self.Equal(types.NewLinkObject("http://example.com/articles/1", nil)))

	relLinks := doc.Primary()[0].RelationshipLinks("author")
	relatedAuthor, _ := relLinks.Get("related")
	is.Equal(relatedAuthor.URL().String(), "http://example.com/articles/1/author")

	version, ok := doc.JSONAPI().Get("version")
	is.True(ok)
	is.Equal(version, "1.1")
}

func TestDynamicPrimaryType(t *testing.T) {
	is, ctx := testSetup(t)

	reg := registry.New(
		registry.Dynamic("articles"),
		registry.Dynamic("people"),
		registry.Dynamic("comments"),
	)

	doc, err := Decode[values.Value](ctx, []byte(articlesJSON), reg)
	is.NoErr(err)

	title, ok := doc.Primary()[0].Attributes().Get("title")
	is.True(ok)
	s, _ := title.AsString()
	is.Equal(s, "JSON:API paints my bikeshed!")

	_, err = document.Resolve[Comment](doc, types.NewIdentifier("5", "comments"))
	is.True(goerrors.Is(err, errors.ErrTypeMismatch))
}

func TestPrimaryTypeMismatch(t *testing.T) {
	is, ctx := testSetup(t)

	_, err := Decode[Comment](ctx, []byte(articlesJSON), testRegistry())
	is.True(goerrors.Is(err, errors.ErrTypeMismatch))
}

type Tagged struct {
	Tags []string `json:"tags"`
}

func TestThatAttributesCannotBeModifiedThroughViews(t *testing.T) {
	is, ctx := testSetup(t)

	doc, err := Decode[Article](ctx, []byte(articlesJSON), testRegistry())
	is.NoErr(err)

	dan := types.NewIdentifier("9", "people")
	author, err := document.Resolve[Person](doc, dan)
	is.NoErr(err)
	*author.Attributes().FirstName = "Someone else"

	author, err = document.Resolve[Person](doc, dan)
	is.NoErr(err)
	is.Equal(*author.Attributes().FirstName, "Dan")

	reg := registry.New(registry.Type[Tagged]("tagged"))
	tagged, err := Decode[Tagged](ctx, []byte(taggedJSON), reg)
	is.NoErr(err)

	tagged.Primary()[0].Attributes().Tags[0] = "changed"
	is.Equal(tagged.Primary()[0].Attributes().Tags, []string{"red", "blue"})

	again, err := document.Resolve[Tagged](tagged, types.NewIdentifier("1", "tagged"))
	is.NoErr(err)
	is.Equal(again.Attributes().Tags, []string{"red", "blue"})
}

func testSetup(t *testing.T) (*is.I, context.Context) {
	is := is.New(t)
	return is, context.Background()
}

func manyArticles(count int) []byte {
	data := make([]string, 0, count)
	included := make([]string, 0, count)

	for i := 0; i < count; i++ {
		data = append(data, fmt.Sprintf(
			`{"type": "articles", "id": "%d", "attributes": {"title": "article %d"}, "relationships": {"comments": {"data": [{"type": "comments", "id": "c%d"}]}}}`,
			i, i, i,
		))
		included = append(included, fmt.Sprintf(
			`{"type": "comments", "id": "c%d", "attributes": {"body": "comment %d"}}`, i, i,
		))
	}

	return []byte(fmt.Sprintf(`{"data": [%s], "included": [%s]}`, strings.Join(data, ","), strings.Join(included, ",")))
}

var articlesJSON string = `{
  "jsonapi": { "version": "1.1" },
  "data": [{
    "type": "articles",
    "id": "1",
    "attributes": {
      "title": "JSON:API paints my bikeshed!"
    },
    "links": {
      "self": "http://example.com/articles/1"
    },
    "relationships": {
      "author": {
        "links": {
          "self": "http://example.com/articles/1/relationships/author",
          "related": "http://example.com/articles/1/author"
        },
        "data": { "type": "people", "id": "9" }
      },
      "comments": {
        "links": {
          "self": "http://example.com/articles/1/relationships/comments",
          "related": "http://example.com/articles/1/comments"
        },
        "data": [
          { "type": "comments", "id": "5" },
          { "type": "comments", "id": "12" }
        ]
      }
    }
  }],
  "included": [{
    "type": "people",
    "id": "9",
    "attributes": {
      "first_name": "Dan",
      "last_name": "Gebhardt",
      "twitter": "dgeb"
    },
    "links": {
      "self": "http://example.com/people/9"
    }
  }, {
    "type": "comments",
    "id": "5",
    "attributes": {
      "body": "First!"
    },
    "relationships": {
      "author": {
        "data": { "type": "people", "id": "2" }
      }
    },
    "links": {
      "self": "http://example.com/comments/5"
    }
  }, {
    "type": "comments",
    "id": "12",
    "attributes": {
      "body": "I like XML better"
    },
    "relationships": {
      "author": {
        "data": { "type": "people", "id": "9" }
      }
    },
    "links": {
      "self": "http://example.com/comments/12"
    }
  }],
  "meta": {
    "self": "http://example.com/articles/1/relationships/comments",
    "related": "http://example.com/articles/1/comments"
  }
}`

var errorJSON string = `{
  "errors": [
    {
      "status": "422",
      "source": { "pointer": "/data/attributes/firstName" },
      "title":  "Invalid Attribute",
      "detail": "First name must contain at least two characters."
    }
  ]
}`

var duplicateJSON string = `{
  "data": [{ "type": "articles", "id": "1", "attributes": { "title": "primary version" } }],
  "included": [{ "type": "articles", "id": "1", "attributes": { "title": "included version" } }]
}`

var taggedJSON string = `{
  "data": [{ "type": "tagged", "id": "1", "attributes": { "tags": ["red", "blue"] } }]
}`
