package cache

import (
	"encoding/json"

	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// Cached values use one of two wire forms. Byte slices are stored as-is
// so binary payloads (rendered exports, compressed blobs) round-trip
// without base64 inflation; everything else is JSON. decode mirrors the
// choice: a payload that parses as JSON is returned decoded, anything
// else comes back as raw bytes.

// encode serializes a value for storage.
func encode(value any) ([]byte, error) {
	if b, ok := value.([]byte); ok {
		return b, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Serialization("encode cache value", err)
	}
	return data, nil
}

// decode deserializes a stored payload. JSON payloads decode into the
// usual generic forms (map[string]any, []any, float64, string, bool,
// nil); non-JSON payloads are returned as the raw byte slice.
func decode(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return data
	}
	return v
}

// decodeInto deserializes a JSON payload into dest. Used by typed reads
// where the caller knows the concrete shape.
func decodeInto(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return apperrors.Serialization("decode cache value", err)
	}
	return nil
}
