package registry

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/diwise/jsonapi/pkg/jsonapi/types/values"
	"github.com/iancoleman/strcase"
)

func decodeInto[T any](attributes json.RawMessage) (T, error) {
	var t T

	if len(bytes.TrimSpace(attributes)) == 0 {
		return t, nil
	}

	v, err := values.Decode(attributes)
	if err != nil {
		return t, err
	}

	if v.IsNull() {
		return t, nil
	}

	converted, err := json.Marshal(camelCaseKeys(v))
	if err != nil {
		return t, err
	}

	err = json.Unmarshal(converted, &t)
	return t, err
}

// camelCaseKeys rewrites snake_case member names into camelCase at every level. When
// several members end up with the same name, a member that was already named that way
// wins, followed by the converted member that sorts first.
func camelCaseKeys(v values.Value) values.Value {
	switch v.Kind() {
	case values.List:
		l, _ := v.AsList()
		for i := range l {
			l[i] = camelCaseKeys(l[i])
		}
		return values.NewList(l...)
	case values.Map:
		m, _ := v.AsMap()
		converted := make(map[string]values.Value, len(m))

		for _, k := range v.Keys() {
			name := toCamel(k)
			if _, taken := converted[name]; taken && name != k {
				continue
			}
			converted[name] = camelCaseKeys(m[k])
		}

		return values.NewMap(converted)
	}
	return v
}

func toCamel(key string) string {
	trimmed := strings.Trim(key, "_")
	if !strings.Contains(trimmed, "_") {
		return key
	}
	return strcase.ToLowerCamel(key)
}
