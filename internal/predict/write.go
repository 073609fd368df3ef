package predict

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON writes v (typically a question id -> answer mapping) as JSON.
// Map keys are emitted in sorted order.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	return nil
}

// WriteFile writes v as JSON to path
func WriteFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes a JSON file into v
func ReadFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
