package stack

import (
	"fmt"
	"sort"
	"strings"
)

// StatusBit is one glyph of the per-commit status line.
type StatusBit int

// Status bit states, in escalating order of attention.
const (
	BitEmpty StatusBit = iota
	BitPending
	BitSuccess
	BitFail
	BitWarning
)

// Glyph renders a status bit. The switch is exhaustive so adding a state is
// a compile-time-checked change.
func (b StatusBit) Glyph() string {
	switch b {
	case BitEmpty:
		return " "
	case BitPending:
		return "⌛"
	case BitSuccess:
		return "✅"
	case BitFail:
		return "❌"
	case BitWarning:
		return "⚠️"
	}
	panic(fmt.Sprintf("unknown status bit %d", int(b)))
}

func boolBit(ok bool) StatusBit {
	if ok {
		return BitSuccess
	}
	return BitEmpty
}

func tristateBit(state *bool) StatusBit {
	switch {
	case state == nil:
		return BitPending
	case *state:
		return BitSuccess
	default:
		return BitFail
	}
}

// Bits computes the per-commit glyph columns: commit pushed, PR exists,
// checks pass, ready for review, approved, and the cumulative stack check.
func (st *StackStatus) Bits(i int) [6]StatusBit {
	s := st.Statuses[i]

	bits := [6]StatusBit{}
	bits[0] = boolBit(s.Pushed())
	bits[1] = boolBit(s.PR != nil)
	if s.PR != nil {
		bits[2] = tristateBit(s.PR.ChecksPass)
		if s.PR.Draft {
			bits[3] = BitPending
		} else {
			bits[3] = BitSuccess
		}
		bits[4] = tristateBit(s.PR.Approved)
	}
	if _, dup := st.DuplicateIDs[s.Commit.ID]; dup {
		bits[5] = BitWarning
	} else {
		bits[5] = boolBit(st.StackCheck(i))
	}
	return bits
}

// Render produces the status display: one line per commit, top of the stack
// first, followed by a report block for behind-target and duplicate-id
// problems.
func (st *StackStatus) Render(targetBranch string) []string {
	var lines []string
	for i := len(st.Statuses) - 1; i >= 0; i-- {
		s := st.Statuses[i]
		bits := st.Bits(i)

		glyphs := make([]string, len(bits))
		for j, bit := range bits {
			glyphs[j] = bit.Glyph()
		}
		line := "[" + strings.Join(glyphs, "") + "]"
		if s.PR != nil && s.PR.Permalink != "" {
			line += " " + s.PR.Permalink
		}
		line += " " + s.Commit.ShortMessage
		lines = append(lines, line)
	}

	if st.BehindTarget > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Your stack is %d commit(s) behind %s. Run 'git rebase' to update.",
			st.BehindTarget, targetBranch))
	}

	if len(st.DuplicateIDs) > 0 {
		ids := make([]string, 0, len(st.DuplicateIDs))
		for id := range st.DuplicateIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		lines = append(lines, "")
		for _, id := range ids {
			lines = append(lines, fmt.Sprintf("Duplicate commit id %s on commits %s.",
				id, strings.Join(st.DuplicateIDs[id], ", ")))
		}
		lines = append(lines, "Amend all but one of each group so every commit gets a fresh id; pushing is blocked until then.")
	}

	return lines
}
