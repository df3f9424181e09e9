// Package sanitize cleans model-generated text before it is shown or mailed.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// fenceRegex matches markdown code fences the model sometimes wraps output in
	fenceRegex = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	// blankRunRegex matches three or more consecutive newlines
	blankRunRegex = regexp.MustCompile(`\n{3,}`)
	// subjectLineRegex matches a leading "Subject: ..." line
	subjectLineRegex = regexp.MustCompile(`(?i)^\s*subject:[^\n]*\n+`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// GeneratedText normalizes LLM output into plain text: tags and code fences
// are removed, line endings unified and runs of blank lines collapsed.
func GeneratedText(s string) string {
	result := strings.ReplaceAll(s, "\r\n", "\n")
	result = fenceRegex.ReplaceAllString(result, "")
	result = StripHTML(result)
	result = blankRunRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// EmailBody is GeneratedText with any leading "Subject:" line dropped,
// since the subject is set separately.
func EmailBody(s string) string {
	return GeneratedText(subjectLineRegex.ReplaceAllString(strings.TrimLeft(s, "\r\n "), ""))
}
