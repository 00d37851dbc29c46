package commsutil

import (
	"bytes"
	"encoding/json"
)

// EncodePayload serializes a value to compact JSON. HTML characters are left
// unescaped so ticket text and document bodies arrive as written.
func EncodePayload(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
