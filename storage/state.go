package storage

import (
	"encoding/json"
	"fmt"
)

// GetState decodes the JSON record identified by (namespace, key) into value. It returns
// ErrNotExist when there is no such record.
func GetState(kv KVStore, namespace string, key []byte, value any) error {
	raw, err := kv.Get(namespace, key)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, value); err != nil {
		return fmt.Errorf("decoding state %s/%s: %w", namespace, key, err)
	}

	return nil
}

// PutState stores value as a JSON record identified by (namespace, key).
func PutState(kv KVStore, namespace string, key []byte, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding state %s/%s: %w", namespace, key, err)
	}

	return kv.Put(namespace, key, raw)
}
