package registry

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

var errNotObject = errors.New("metadata is not a JSON object")

// ModelDescriptor is one installed model as read from its metadata file.
// ID, Name and Engine are the string values of those keys, empty when the key
// is missing or holds something other than a string. Raw keeps every
// top-level field exactly as read, known keys included.
type ModelDescriptor struct {
	ID     string
	Name   string
	Engine string

	Raw map[string]json.RawMessage
}

// Field returns a top-level field by key as it appeared in the metadata.
func (d ModelDescriptor) Field(key string) (json.RawMessage, bool) {
	v, ok := d.Raw[key]
	return v, ok
}

// UnmarshalJSON accepts any JSON object. Only invalid JSON or a non-object
// document is an error.
func (d *ModelDescriptor) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return errNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*d = ModelDescriptor{
		ID:     stringField(fields, "id"),
		Name:   stringField(fields, "name"),
		Engine: stringField(fields, "engine"),
		Raw:    fields,
	}
	return nil
}

// MarshalJSON re-emits Raw. A typed field overrides its raw value only when
// it was changed after decoding.
func (d ModelDescriptor) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Raw)+3)
	for k, v := range d.Raw {
		out[k] = v
	}

	for key, val := range map[string]string{"id": d.ID, "name": d.Name, "engine": d.Engine} {
		if _, ok := out[key]; ok && (val == "" || stringField(out, key) == val) {
			continue
		}
		if val == "" {
			continue
		}
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		out[key] = b
	}

	return json.Marshal(out)
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	if r := gjson.ParseBytes(raw); r.Type == gjson.String {
		return r.Str
	}
	return ""
}
