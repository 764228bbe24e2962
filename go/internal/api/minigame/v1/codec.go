package minigamev1

import (
	"bytes"
	"encoding/json"
)

// Codec serializes minigame.v1 messages as JSON. It registers under the
// "json" name so requests with Content-Type application/json use it.
type Codec struct{}

func (Codec) Name() string {
	return "json"
}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal treats an empty body as an empty message.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
