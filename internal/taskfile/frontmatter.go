package taskfile

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("frontmatter must start with '---'")
	// ErrMalformedFrontMatter indicates the closing fence is missing or the
	// block is not a YAML mapping.
	ErrMalformedFrontMatter = errors.New("malformed frontmatter")
)

const fence = "---"

// ParseFrontMatter extracts the YAML metadata block and the body from a
// document fenced by `---` lines.
func ParseFrontMatter(content []byte) (map[string]any, []byte, error) {
	lines := bytes.Split(normalizeNewlines(content), []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimSpace(lines[0])) != fence {
		return nil, nil, ErrMissingFrontMatter
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if string(bytes.TrimSpace(lines[i])) == fence {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, nil, fmt.Errorf("%w: end marker '---' is missing", ErrMalformedFrontMatter)
	}
	metaBytes := bytes.Join(lines[1:end], []byte("\n"))
	body := bytes.Join(lines[end+1:], []byte("\n"))

	var node yaml.Node
	if err := yaml.Unmarshal(metaBytes, &node); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: must be a YAML mapping", ErrMalformedFrontMatter)
	}
	fields := map[string]any{}
	if err := node.Content[0].Decode(&fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	return fields, body, nil
}

// WriteFrontMatter renders the front matter + body with YAML fences. The
// metadata value is encoded as-is, so struct field order is preserved.
func WriteFrontMatter(meta any, body []byte) ([]byte, error) {
	var encoded bytes.Buffer
	enc := yaml.NewEncoder(&encoded)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("taskfile: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("taskfile: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(bytes.TrimRight(encoded.Bytes(), "\n"))
	buf.WriteString("\n" + fence + "\n")
	if len(body) > 0 {
		buf.WriteString("\n")
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
