package handler

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// decodeBody checks the raw body against schema before decoding it into target.
func decodeBody(body []byte, schema *jsonschema.Schema, target interface{}) error {
	var document interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		return err
	}
	if err := schema.Validate(document); err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}
