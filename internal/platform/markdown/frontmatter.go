package markdown

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// SplitFrontmatter separates a leading YAML block from the note body. Notes
// saved with CRLF line endings are normalized to LF first, and a closing
// fence on the last line without a trailing newline is accepted.
func SplitFrontmatter(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence+"\n") {
		return map[string]any{}, content, nil
	}
	rest := content[len(fence)+1:]

	var raw, body string
	switch idx := strings.Index(rest, "\n"+fence+"\n"); {
	case idx >= 0:
		raw, body = rest[:idx], rest[idx+len(fence)+2:]
	case strings.HasSuffix(rest, "\n"+fence):
		raw = strings.TrimSuffix(rest, "\n"+fence)
	case rest == fence || rest == fence+"\n":
	default:
		return nil, "", fmt.Errorf("invalid frontmatter: missing closing fence")
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return meta, body, nil
}

// RenderFrontmatter writes meta as a YAML block ahead of body, separated by
// one blank line. meta may be a map or a tagged struct.
func RenderFrontmatter(meta any, body string) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString(fence + "\n")
	b.Write(raw)
	b.WriteString(fence + "\n\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	return b.String(), nil
}
