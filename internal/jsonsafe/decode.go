package jsonsafe

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is the key-ordered mapping produced by Normalize and FromJSON.
type Object = orderedmap.OrderedMap[string, any]

// ErrInvalidJSON is returned by FromJSON when the input is not a single valid JSON document.
var ErrInvalidJSON = errors.New("invalid JSON")

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// FromJSON decodes a JSON document keeping the key order of every object.
// Objects become *Object, arrays []any and numbers json.Number, so integers
// wider than 53 bits survive the round trip untouched.
func FromJSON(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return decodeValue(value, dataType)
}

func decodeValue(raw []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Number:
		return json.Number(string(raw)), nil
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Array:
		return decodeArray(raw)
	case jsonparser.Object:
		return decodeObject(raw)
	default:
		return nil, fmt.Errorf("%w: unexpected value %q", ErrInvalidJSON, raw)
	}
}

func decodeArray(raw []byte) ([]any, error) {
	items := []any{}
	var inner error
	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if inner != nil {
			return
		}
		if err != nil {
			inner = err
			return
		}
		item, err := decodeValue(value, dataType)
		if err != nil {
			inner = err
			return
		}
		items = append(items, item)
	})
	if inner != nil {
		return nil, inner
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return items, nil
}

func decodeObject(raw []byte) (*Object, error) {
	obj := NewObject()
	err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		item, err := decodeValue(value, dataType)
		if err != nil {
			return err
		}
		obj.Set(string(key), item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return obj, nil
}

// Lookup returns the value stored under key when v is an *Object.
// A key holding JSON null reports ok=false, so callers can chain
// lookups the way optional chaining treats missing and null alike.
func Lookup(v any, key string) (any, bool) {
	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return nil, false
	}
	value, ok := obj.Get(key)
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// ToJSON normalizes v and encodes the result.
func ToJSON(v any) ([]byte, error) {
	return json.Marshal(Normalize(v))
}
