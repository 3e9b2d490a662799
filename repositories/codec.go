// Package repositories persists rooms, messages, membership facts, and users
// in BadgerDB. Values are CBOR-encoded; keys are composite strings designed
// so that membership checks are single lookups and room history is a prefix
// scan in chronological order.
package repositories

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

func encode(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor encode failed: %w", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor decode failed: %w", err)
	}
	return nil
}
