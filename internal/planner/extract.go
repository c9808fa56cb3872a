package planner

import (
	"bytes"
)

var fence = []byte("```")

// ExtractJSON returns the outermost JSON object in body. Language models
// often wrap their answer in a Markdown code fence or surround it with
// prose, so a leading fence (with an optional "json" tag) is stripped and
// the slice from the first '{' to the last '}' is returned.
func ExtractJSON(body []byte) ([]byte, error) {
	text := bytes.TrimSpace(body)
	if len(text) == 0 {
		return nil, ErrNoJSON
	}

	if bytes.HasPrefix(text, fence) {
		text = bytes.TrimLeft(text[len(fence):], " \t\r\n")
		if len(text) >= 4 && bytes.EqualFold(text[:4], []byte("json")) {
			text = text[4:]
		}
		if end := bytes.Index(text, fence); end >= 0 {
			text = text[:end]
		}
	}

	start := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, ErrNoJSON
	}
	return text[start : end+1], nil
}
