package scenario

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Document formats
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatOf derives the document format from a file extension
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported scenario file type %q", filepath.Ext(path))
}

func parserFor(format string) (koanf.Parser, error) {
	switch format {
	case FormatTOML:
		return toml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	case FormatYAML:
		return yaml.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported scenario format %q", format)
}

// Load reads a scenario file. The name defaults to the file's base name.
func Load(path string) (*Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", path, err)
	}

	s, err := decode(k)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes a scenario document held in memory
func Parse(data []byte, format string) (*Scenario, error) {
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(bytesProvider(data), parser); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return decode(k)
}

func decode(k *koanf.Koanf) (*Scenario, error) {
	var s Scenario
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario has no steps", ErrInvalidStep)
	}
	return &s, nil
}

// bytesProvider feeds an in-memory document to a koanf parser
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) {
	return b, nil
}

func (b bytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("bytes provider requires a parser")
}
