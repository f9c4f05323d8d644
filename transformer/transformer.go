// Package transformer provides the byte codecs disk storage encodes values with.
//
// Every constructor returns a value satisfying storage.Transformer for its type.
package transformer

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned by the String codec for bytes that are not UTF-8.
var ErrInvalidUTF8 = errors.New("transformer: invalid utf-8")

// DataTransformer stores byte slices as-is.
type DataTransformer struct{}

// Data returns the identity codec for []byte.
func Data() DataTransformer { return DataTransformer{} }

func (DataTransformer) ToData(v []byte) ([]byte, error) { return v, nil }

// FromData copies b so callers may keep it.
func (DataTransformer) FromData(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// StringTransformer stores strings as UTF-8 bytes.
type StringTransformer struct{}

func String() StringTransformer { return StringTransformer{} }

func (StringTransformer) ToData(v string) ([]byte, error) { return []byte(v), nil }

func (StringTransformer) FromData(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// JSONTransformer stores values of T as JSON documents.
type JSONTransformer[T any] struct{}

func JSON[T any]() JSONTransformer[T] { return JSONTransformer[T]{} }

func (JSONTransformer[T]) ToData(v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transformer: encode %T: %w", v, err)
	}
	return b, nil
}

func (JSONTransformer[T]) FromData(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("transformer: decode %T: %w", v, err)
	}
	return v, nil
}
