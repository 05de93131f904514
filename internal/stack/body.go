package stack

import (
	"fmt"
	"strings"
)

// BodySentinel marks the start of the generated part of a PR description.
// Everything after it is overwritten on every push; user content before it
// is preserved.
const BodySentinel = "<!-- jaspr start -->"

const bodyWarning = "⚠️ Part of a stack created by jaspr. " +
	"Do not merge manually using the UI - doing so may have unexpected results."

// stackBodyEntry is one stack position in a PR description, ordered from the
// top of the stack to the bottom.
type stackBodyEntry struct {
	Number    int
	Current   bool
	Revisions []revisionLink
}

// revisionLink is one compare link between consecutive revisions of a
// commit branch.
type revisionLink struct {
	Label string
	URL   string
}

// renderBody produces the generated portion of a PR description for one
// commit.
func renderBody(message string, entries []stackBodyEntry) string {
	subject, body := SubjectAndBody(TrimFooters(message))

	var b strings.Builder
	b.WriteString(BodySentinel + "\n")
	b.WriteString("### " + subject + "\n")
	if body != "" {
		b.WriteString("\n" + body + "\n")
	}

	b.WriteString("\n**Stack**:\n")
	for _, entry := range entries {
		marker := ""
		if entry.Current {
			marker = " ⬅"
		}
		b.WriteString(fmt.Sprintf("- #%d%s\n", entry.Number, marker))
		for _, rev := range entry.Revisions {
			b.WriteString(fmt.Sprintf("  - [%s](%s)\n", rev.Label, rev.URL))
		}
	}

	b.WriteString("\n" + bodyWarning)
	return b.String()
}

// mergeBody splices the generated description into an existing PR body,
// preserving any user-written preamble before the sentinel. A body without a
// sentinel is treated entirely as preamble.
func mergeBody(existing, generated string) string {
	if idx := strings.Index(existing, BodySentinel); idx >= 0 {
		return existing[:idx] + generated
	}
	preamble := strings.TrimRight(existing, "\n")
	if preamble == "" {
		return generated
	}
	return preamble + "\n\n" + generated
}

// revisionLinks builds the compare links for a commit branch: one per
// archived revision, each diffing against the next revision, the last one
// against the current branch.
func (e *Engine) revisionLinks(commitID string, revisions []int) []revisionLink {
	if len(revisions) == 0 {
		return nil
	}
	repoURL := e.gh.RepoURL()
	current := e.commitBranch(commitID)

	links := make([]revisionLink, 0, len(revisions))
	for i, rev := range revisions {
		from := RevisionBranchName(e.cfg.BranchPrefix, e.cfg.TargetBranch, commitID, rev)
		toLabel := "current"
		to := current
		if i+1 < len(revisions) {
			toLabel = fmt.Sprintf("%02d", revisions[i+1])
			to = RevisionBranchName(e.cfg.BranchPrefix, e.cfg.TargetBranch, commitID, revisions[i+1])
		}
		links = append(links, revisionLink{
			Label: fmt.Sprintf("%02d..%s", rev, toLabel),
			URL:   fmt.Sprintf("%s/compare/%s..%s", repoURL, from, to),
		})
	}
	return links
}
