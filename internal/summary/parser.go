// Package summary splits the model's free-form output into a title and body.
package summary

import "strings"

// FallbackTitle is used when the model output contains no usable line.
const FallbackTitle = "Medical Report"

// Parse splits raw model output positionally: the first non-blank line is
// the title, the body starts at the next non-blank line after it. The model
// is instructed to put a short title on its own first line followed by a
// blank line; if it violates that, the parse degrades gracefully (worst
// case the whole output becomes the title) instead of failing.
func Parse(raw string) (title, body string) {
	lines := strings.Split(raw, "\n")

	titleIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			titleIdx = i
			break
		}
	}
	if titleIdx == -1 {
		return FallbackTitle, ""
	}
	title = strings.TrimSpace(lines[titleIdx])

	bodyIdx := -1
	for i := titleIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			bodyIdx = i
			break
		}
	}
	if bodyIdx == -1 {
		return title, ""
	}
	body = strings.TrimSpace(strings.Join(lines[bodyIdx:], "\n"))
	return title, body
}
