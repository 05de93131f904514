// Package stack implements the reconciliation engine that keeps a linear
// local commit stack synchronized with remote branches and pull requests.
package stack

import (
	"regexp"
	"sort"
	"strings"
)

// CommitIDFooter is the trailer key that carries a commit's stable id.
const CommitIDFooter = "commit-id"

// A footer line is exactly "token: token". Lines with embedded spaces on
// either side do not qualify, which keeps trailing URLs and prose paragraphs
// from being misread as a trailer block.
var footerLine = regexp.MustCompile(`^(\S+): (\S+)$`)

// Footers parses the trailer block of a commit message. The block is the
// text after the last blank-line-separated paragraph, and qualifies only if
// every line in it is a footer line. A single-paragraph message has no
// trailer block, its one paragraph is the subject.
func Footers(message string) map[string]string {
	head, last, ok := splitLastParagraph(message)
	if !ok || head == "" {
		return map[string]string{}
	}

	footers := map[string]string{}
	for _, line := range strings.Split(last, "\n") {
		match := footerLine.FindStringSubmatch(line)
		if match == nil {
			return map[string]string{}
		}
		footers[match[1]] = match[2]
	}
	return footers
}

// AddFooters appends footers to the message's trailer block, creating the
// block if none exists. Appended lines are never indented; indentation
// breaks forge-side trailer parsing.
func AddFooters(message string, footers map[string]string) string {
	if len(footers) == 0 {
		return message
	}

	keys := make([]string, 0, len(footers))
	for key := range footers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		lines = append(lines, key+": "+footers[key])
	}

	trimmed := strings.TrimRight(message, "\n")
	if len(Footers(message)) > 0 {
		return trimmed + "\n" + strings.Join(lines, "\n")
	}
	return trimmed + "\n\n" + strings.Join(lines, "\n")
}

// TrimFooters removes a qualifying trailer block from the message, used when
// rebuilding PR descriptions so the commit id does not leak into the body.
func TrimFooters(message string) string {
	if len(Footers(message)) == 0 {
		return strings.TrimRight(message, "\n")
	}
	head, _, _ := splitLastParagraph(message)
	return strings.TrimRight(head, "\n")
}

// SubjectAndBody splits a message into its subject and body. The subject is
// the first paragraph with internal newlines folded to spaces; the body is
// everything after, "" when absent.
func SubjectAndBody(message string) (string, string) {
	trimmed := strings.TrimSpace(message)
	idx := strings.Index(trimmed, "\n\n")
	if idx < 0 {
		return foldLines(trimmed), ""
	}
	return foldLines(trimmed[:idx]), strings.TrimSpace(trimmed[idx+2:])
}

func foldLines(paragraph string) string {
	lines := strings.Split(paragraph, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, " ")
}

// splitLastParagraph splits a message at the blank line before its last
// paragraph. ok is false for single-paragraph messages.
func splitLastParagraph(message string) (head, last string, ok bool) {
	trimmed := strings.TrimRight(message, "\n")
	idx := strings.LastIndex(trimmed, "\n\n")
	if idx < 0 {
		return "", trimmed, false
	}
	return trimmed[:idx], trimmed[idx+2:], true
}
