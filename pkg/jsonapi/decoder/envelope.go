package decoder

import (
	"encoding/json"

	"github.com/diwise/jsonapi/pkg/jsonapi/errors"
	"github.com/diwise/jsonapi/pkg/jsonapi/types"
	"github.com/diwise/jsonapi/pkg/jsonapi/types/resources"
)

type envelope struct {
	primary []types.Identifier

	// shells holds one shell per distinct identifier, in the order they were first seen
	shells []resources.Shell

	links   types.Links
	meta    types.Meta
	jsonapi types.Meta
}

// parseEnvelope is the first decoding phase. It turns the top level document into
// resource shells, without looking at attributes or relationships.
func parseEnvelope(body []byte, rejectDuplicates bool) (*envelope, error) {
	if response, ok := errors.NewErrorResponseFromJSON(body); ok {
		return nil, response
	}

	contents := struct {
		Data     *[]json.RawMessage `json:"data"`
		Included []json.RawMessage  `json:"included"`
		Links    json.RawMessage    `json:"links"`
		Meta     json.RawMessage    `json:"meta"`
		JSONAPI  json.RawMessage    `json:"jsonapi"`
	}{}

	err := json.Unmarshal(body, &contents)
	if err != nil {
		return nil, errors.NewMalformedEnvelopeError("failed to unmarshal document", err)
	}

	if contents.Data == nil {
		return nil, errors.NewMalformedEnvelopeError("document has neither errors nor data", nil)
	}

	if len(*contents.Data) == 0 {
		return nil, errors.NewEmptyDocumentError()
	}

	env := &envelope{
		primary: make([]types.Identifier, 0, len(*contents.Data)),
		shells:  make([]resources.Shell, 0, len(*contents.Data)+len(contents.Included)),
	}

	index := map[types.Identifier]int{}

	add := func(raw json.RawMessage) (types.Identifier, error) {
		var s resources.Shell
		err := json.Unmarshal(raw, &s)
		if err != nil {
			return types.Identifier{}, err
		}

		if pos, ok := index[s.ID]; ok {
			if rejectDuplicates {
				return types.Identifier{}, errors.NewDuplicateResourceError(s.ID)
			}
			env.shells[pos] = s
			return s.ID, nil
		}

		index[s.ID] = len(env.shells)
		env.shells = append(env.shells, s)
		return s.ID, nil
	}

	for _, raw := range *contents.Data {
		id, err := add(raw)
		if err != nil {
			return nil, err
		}
		env.primary = append(env.primary, id)
	}

	for _, raw := range contents.Included {
		_, err := add(raw)
		if err != nil {
			return nil, err
		}
	}

	env.links, err = types.DecodeLinks(contents.Links)
	if err != nil {
		return nil, err
	}

	env.meta, err = types.DecodeMeta(contents.Meta)
	if err != nil {
		return nil, err
	}

	env.jsonapi, err = types.DecodeMeta(contents.JSONAPI)
	if err != nil {
		return nil, err
	}

	return env, nil
}
