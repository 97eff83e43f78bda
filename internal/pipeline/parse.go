package pipeline

import (
	"regexp"
	"strings"
)

// notFoundTokens are sentinel answers meaning "no evidence".
var notFoundTokens = map[string]bool{
	"not found in source": true,
	"not found":           true,
	"n/a":                 true,
	"na":                  true,
	"none":                true,
	"unknown":             true,
}

// labelPattern compiles a line-anchored matcher for any of labels. Labels
// may be wrapped in markdown emphasis or preceded by bullets.
func labelPattern(labels ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t>*#\-]*(` + strings.Join(labels, "|") + `)[ \t*]*:`)
}

// labeledSections slices text at every label match. The value of a label
// runs to the next known label or end of text. The first occurrence of a
// label wins; canon maps a matched label to its key.
func labeledSections(text string, re *regexp.Regexp, canon func(string) string) map[string]string {
	out := make(map[string]string)
	matches := re.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		key := canon(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = strings.TrimSpace(text[m[1]:end])
	}
	return out
}

// cleanScalar trims decoration from a single-value field and maps sentinel
// answers to "".
func cleanScalar(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'*`))
	if notFoundTokens[strings.ToLower(s)] {
		return ""
	}
	return s
}

var (
	listSplitRe    = regexp.MustCompile(`[,;\n]`)
	bulletPrefixRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

// splitList splits a list-valued field on commas, semicolons, or newline
// bullets, dropping sentinel tokens. The result is never nil.
func splitList(s string) []string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	out := []string{}
	for _, part := range listSplitRe.Split(s, -1) {
		part = strings.TrimSpace(part)
		part = bulletPrefixRe.ReplaceAllString(part, "")
		part = strings.Trim(strings.TrimSpace(part), `"'[]*`)
		part = strings.TrimSpace(part)
		if part == "" || notFoundTokens[strings.ToLower(part)] {
			continue
		}
		out = append(out, part)
	}
	return out
}
