package git

import "time"

// Ident identifies a commit author or committer.
type Ident struct {
	Name  string
	Email string
}

// Commit is an immutable snapshot of a local commit. Amending never mutates
// a Commit, it produces a new one with a new hash. ID is the stable commit
// id from the message trailer; empty until one has been assigned.
type Commit struct {
	Hash         string
	ShortMessage string
	FullMessage  string
	ID           string
	Parents      []string
	Author       Ident
	Committer    Ident
	AuthorTime   time.Time
	CommitTime   time.Time
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// RemoteBranch is a branch on the remote and the commit it points at.
type RemoteBranch struct {
	Name string
	Head string
}

// DeleteRef is the reserved local ref of a RefSpec that deletes the remote
// ref instead of updating it.
const DeleteRef = ""

// RefSpec is a single push instruction. Local is a commit hash or ref to
// push, or DeleteRef to delete Remote on the other side. Remote is a short
// branch name.
type RefSpec struct {
	Local  string
	Remote string
}

// IsDelete reports whether the refspec deletes the remote branch.
func (r RefSpec) IsDelete() bool {
	return r.Local == DeleteRef
}
