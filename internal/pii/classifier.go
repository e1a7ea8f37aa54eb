// Package pii flags recognized text lines that carry personally
// identifiable information so they can be redacted before anything leaves
// the device boundary.
//
// Detection is a fixed set of independent regular expressions over a
// normalized form of each line. A line matching any pattern is flagged as a
// whole; sub-spans are never isolated. That trades readability of the
// redacted page for recall, which is the right direction for patient data.
package pii

import (
	"image"
	"regexp"
	"strings"

	"medscan/internal/ocr"
)

// normalizer strips every character outside the allow-list before matching.
var normalizer = regexp.MustCompile(`[^a-z0-9@._%+\-:/.,;() ]`)

// rawPatterns is the fixed pattern set. Matching is case-insensitive;
// input is normalized to lowercase first.
var rawPatterns = []string{
	// Email addresses
	`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
	// Date of birth, month/day/year ordering
	`(0?[1-9]|1[012])[- /.](0?[1-9]|[12][0-9]|3[01])[- /.](19|20)?\d\d`,
	// Date of birth, day/month/year ordering
	`(0?[1-9]|[12][0-9]|3[01])[- /.](0?[1-9]|1[012])[- /.](19|20)?\d\d`,
	// Date of birth, day/month-name/year ordering
	`(0?[1-9]|[12][0-9]|3[01])[- /.](jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec|january|february|march|april|may|june|july|august|september|october|november|december)[- /.](19|20)?\d\d`,
	// Social security number shape (3-2-4 digit groups)
	`\d{3}[- ]?\d{2}[- ]?\d{4}`,
	// Insurance policy / member / patient identifiers
	`(policy|member|insurance|id)[:\s]*[a-z0-9]{6,}`,
	// Honorific-prefixed names and explicit name-field labels
	`mr|ms|mrs|dr|miss|prof\.?\s+[a-z]+`,
	`(name|patient name|pat name)[:\s]`,
	// Age expressions in three orderings
	`age\s*[:\-]?\s*\d{1,3}(\s*(years?|yrs?|y))?`,
	`\d{1,3}\s*(years?|yrs?|y)?\s*age`,
	`\d{1,3}\s*(years?|yrs?|y)\b`,
	// Gender and sex fields
	`:\s*(male|female|m|f)\b`,
	`(sex|gender)\s*[:\-]?\s*(male|female|m|f)`,
}

// compiled holds the usable subset of rawPatterns. The patterns are
// compile-time constants, so a failure here is a programmer error; it is
// treated as a non-match rather than a fatal condition.
var compiled = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(rawPatterns))
	for _, p := range rawPatterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}()

// ContainsPII reports whether a single line of recognized text matches any
// of the fixed patterns.
func ContainsPII(text string) bool {
	normalized := strings.TrimSpace(normalizer.ReplaceAllString(strings.ToLower(text), ""))
	if normalized == "" {
		return false
	}
	for _, re := range compiled {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Classify returns the bounding boxes of every line whose text matches a
// PII pattern. The full line box is returned for each match.
func Classify(lines []ocr.RecognizedLine) []image.Rectangle {
	var rects []image.Rectangle
	for _, line := range lines {
		if ContainsPII(line.Text) {
			rects = append(rects, line.Box)
		}
	}
	return rects
}
