package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderBody(t *testing.T) {
	t.Parallel()

	t.Run("commit message and stack list", func(t *testing.T) {
		t.Parallel()
		body := renderBody("Add parser\n\nLonger description.\n\ncommit-id: abc", []stackBodyEntry{
			{Number: 102},
			{Number: 101, Current: true},
		})

		require.Contains(t, body, BodySentinel)
		require.Contains(t, body, "### Add parser")
		require.Contains(t, body, "Longer description.")
		require.NotContains(t, body, "commit-id", "trailers must not leak into the description")
		require.Contains(t, body, "- #102\n- #101 ⬅")
		require.Contains(t, body, "Do not merge manually")
	})

	t.Run("revision links are nested under their entry", func(t *testing.T) {
		t.Parallel()
		body := renderBody("Add parser", []stackBodyEntry{
			{Number: 101, Current: true, Revisions: []revisionLink{
				{Label: "01..current", URL: "https://example.com/compare/a..b"},
			}},
		})
		require.Contains(t, body, "- #101 ⬅\n  - [01..current](https://example.com/compare/a..b)")
	})
}

func TestMergeBody(t *testing.T) {
	t.Parallel()

	t.Run("replaces everything after the sentinel", func(t *testing.T) {
		t.Parallel()
		existing := "notes\n\n" + BodySentinel + "\nold generated text"
		out := mergeBody(existing, BodySentinel+"\nnew generated text")
		require.Equal(t, "notes\n\n"+BodySentinel+"\nnew generated text", out)
	})

	t.Run("a body without a sentinel becomes the preamble", func(t *testing.T) {
		t.Parallel()
		out := mergeBody("hand-written description\n", BodySentinel+"\ngenerated")
		require.Equal(t, "hand-written description\n\n"+BodySentinel+"\ngenerated", out)
	})

	t.Run("empty body takes the generated text as is", func(t *testing.T) {
		t.Parallel()
		out := mergeBody("", BodySentinel+"\ngenerated")
		require.Equal(t, BodySentinel+"\ngenerated", out)
	})
}
