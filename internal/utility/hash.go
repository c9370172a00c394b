package utility

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var errorNoHashableFields = errors.New("no hashable fields found")

// Hash - calculate the hash of the object.
// Only fields carrying a "hash" struct tag participate, so meta fields
// (timestamps, soft-delete markers) do not change the identity of a record.
func Hash(obj interface{}) (string, error) {
	hashable := make(map[string]interface{})

	val := reflect.ValueOf(obj)
	val = reflect.Indirect(val)
	typ := val.Type()

	hasFields := false

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if _, ok := field.Tag.Lookup("hash"); ok {
			hashable[field.Name] = val.Field(i).Interface()
			hasFields = true
		}
	}

	if !hasFields {
		return "", errorNoHashableFields
	}

	// Sort the keys so serialization is stable across runs.
	keys := make([]string, 0, len(hashable))
	for k := range hashable {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)
	for _, key := range keys {
		if err := enc.Encode(hashable[key]); err != nil {
			return "", fmt.Errorf("failed to encode hashable fields: %w", err)
		}
	}

	hash := sha256.Sum256(buf.Bytes())

	return fmt.Sprintf("%x", hash), nil
}
