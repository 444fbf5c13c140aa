package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// DecodeFile decodes a JSON, YAML or CUE file into out, choosing the format
// by extension. JSON and CUE numbers decode as json.Number into untyped
// fields so 64-bit identifiers survive.
func DecodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return decodeJSON(path, data, out)
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	case ".cue":
		jsonData, err := evalCUE(path, data)
		if err != nil {
			return err
		}
		return decodeJSON(path, jsonData, out)
	default:
		return fmt.Errorf("decode %s: unsupported file type %q", path, ext)
	}
}

func decodeJSON(path string, data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// evalCUE evaluates a CUE document and exports it as JSON.
func evalCUE(path string, data []byte) ([]byte, error) {
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	out, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", path, err)
	}
	return out, nil
}
