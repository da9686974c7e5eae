package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// Format is a descriptor encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the descriptor format from a content type, falling back
// to the extension of name. Unknown inputs default to JSON.
func DetectFormat(contentType, name string) Format {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch {
			case strings.HasSuffix(mt, "yaml"):
				return FormatYAML
			case strings.HasSuffix(mt, "json"):
				return FormatJSON
			}
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode decodes an element descriptor. An empty or null body yields a nil
// implementation.
func Decode(data []byte, format Format) (customelements.Implementation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "~" {
		return nil, nil
	}

	var tpl customelements.Template
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(trimmed, &tpl); err != nil {
			return nil, fmt.Errorf("decode yaml descriptor: %w", err)
		}
	default:
		if err := json.Unmarshal(trimmed, &tpl); err != nil {
			return nil, fmt.Errorf("decode json descriptor: %w", err)
		}
	}
	return &tpl, nil
}
