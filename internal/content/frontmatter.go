package content

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Frontmatter delimiters.
var (
	yamlDelimiter = []byte("---")
	tomlDelimiter = []byte("+++")
)

// ParseFrontmatter splits a markdown page file into its front matter and
// body. YAML (---) and TOML (+++) delimiters are supported. The front
// matter of a page file is its content document.
//
// If no front matter delimiters are found, it returns nil metadata, the
// full input as body, and no error.
func ParseFrontmatter(raw []byte) (metadata map[string]any, body []byte, err error) {
	trimmed := bytes.TrimLeft(raw, " \t\n\r")

	var delimiter []byte
	var format string

	switch {
	case bytes.HasPrefix(trimmed, yamlDelimiter):
		delimiter = yamlDelimiter
		format = "yaml"
	case bytes.HasPrefix(trimmed, tomlDelimiter):
		delimiter = tomlDelimiter
		format = "toml"
	default:
		// No frontmatter found.
		return nil, raw, nil
	}

	// Find the end of the opening delimiter line.
	rest := trimmed[len(delimiter):]
	// Skip to end of the delimiter line (past any trailing whitespace/newline).
	nlIdx := bytes.IndexByte(rest, '\n')
	if nlIdx == -1 {
		// Only the opening delimiter, no closing one.
		return nil, raw, nil
	}
	rest = rest[nlIdx+1:]

	// Find the closing delimiter.
	before, after, ok := bytes.Cut(rest, delimiter)
	if !ok {
		return nil, raw, fmt.Errorf("closing frontmatter delimiter %q not found", string(delimiter))
	}

	frontmatterContent := before
	afterClosing := after

	// Skip to end of closing delimiter line.
	nlIdx = bytes.IndexByte(afterClosing, '\n')
	if nlIdx == -1 {
		body = nil
	} else {
		body = afterClosing[nlIdx+1:]
	}

	// Handle empty frontmatter.
	if len(bytes.TrimSpace(frontmatterContent)) == 0 {
		return make(map[string]any), body, nil
	}

	metadata = make(map[string]any)

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(frontmatterContent, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(frontmatterContent, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse TOML frontmatter: %w", err)
		}
	}

	return metadata, body, nil
}

