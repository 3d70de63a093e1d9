package markdown

import "strings"

// Block is a generated region of a note delimited by two marker lines.
// Everything outside the markers belongs to the user.
type Block struct {
	Start string
	End   string
}

// Upsert replaces the block's content in body, or appends the block after a
// blank line when body has none. A start marker whose end marker was deleted
// is treated as running to the end of the note.
func (b Block) Upsert(body, generated string) string {
	block := b.Start + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.End

	if start := strings.Index(body, b.Start); start >= 0 {
		tail := ""
		if end := strings.Index(body[start:], b.End); end >= 0 {
			tail = body[start+end+len(b.End):]
		} else {
			tail = "\n"
		}
		return body[:start] + block + tail
	}

	trimmed := strings.TrimRight(body, "\n")
	if strings.TrimSpace(trimmed) == "" {
		return block + "\n"
	}
	return trimmed + "\n\n" + block + "\n"
}
