package stack

import (
	"fmt"
	"regexp"
	"strconv"
)

// RemoteRefParts is the decoded form of a remote branch name produced by the
// naming scheme. Revision 0 means the current branch for the commit;
// revisions of archived history branches start at 1.
type RemoteRefParts struct {
	TargetRef string
	CommitID  string
	Revision  int
}

// BranchName encodes the current branch name for a commit:
// "prefix/targetRef/commitID".
func BranchName(prefix, targetRef, commitID string) string {
	return prefix + "/" + targetRef + "/" + commitID
}

// RevisionBranchName encodes an archived revision-history branch name, the
// prior head of a commit branch before a force-push overwrote it. The
// numeric suffix is two-digit zero-padded.
func RevisionBranchName(prefix, targetRef, commitID string, revision int) string {
	return fmt.Sprintf("%s/%s/%s_%02d", prefix, targetRef, commitID, revision)
}

// StackBranchName encodes a named-stack branch, a second namespace keyed by
// a human label instead of a commit id.
func StackBranchName(prefix, targetRef, name string) string {
	return prefix + "/" + targetRef + "/" + name
}

// ParseBranchName decodes a per-commit branch name. The target ref may
// itself contain slashes; the commit id may not.
func ParseBranchName(name, prefix string) (*RemoteRefParts, bool) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/(.+)/(.+?)(?:_(\d+))?$`)
	match := pattern.FindStringSubmatch(name)
	if match == nil {
		return nil, false
	}

	parts := &RemoteRefParts{TargetRef: match[1], CommitID: match[2]}
	if match[3] != "" {
		revision, err := strconv.Atoi(match[3])
		if err != nil || revision < 1 {
			return nil, false
		}
		parts.Revision = revision
	}
	return parts, true
}

// StackRefParts is the decoded form of a named-stack branch name.
type StackRefParts struct {
	TargetRef string
	Name      string
}

// ParseStackBranchName decodes a named-stack branch name. There is no
// revision suffix in this namespace.
func ParseStackBranchName(name, prefix string) (*StackRefParts, bool) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/(.+)/([^/]+)$`)
	match := pattern.FindStringSubmatch(name)
	if match == nil {
		return nil, false
	}
	return &StackRefParts{TargetRef: match[1], Name: match[2]}, true
}
