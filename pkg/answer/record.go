package answer

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Key is the fixed key the record is stored under.
const Key = "data.json"

// StoredValue is the single persisted record.
type StoredValue struct {
	Data string `json:"data"`
}

var recordType = cty.Object(map[string]cty.Type{
	"data": cty.String,
})

func encodeRecord(v StoredValue) ([]byte, error) {
	return json.Marshal(v)
}

// decodeRecord only accepts a JSON object with exactly one string attribute
// named data.
func decodeRecord(raw []byte) (StoredValue, error) {
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return StoredValue{}, fmt.Errorf("parse record: %w", err)
	}
	if !ty.Equals(recordType) {
		return StoredValue{}, fmt.Errorf("unexpected record shape: %s", ty.FriendlyName())
	}

	var v StoredValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return StoredValue{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return v, nil
}
