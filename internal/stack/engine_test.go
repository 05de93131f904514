package stack_test

import (
	"fmt"
	"io"
	"testing"
	"time"

	"jaspr.dev/jaspr/internal/config"
	"jaspr.dev/jaspr/internal/output"
	"jaspr.dev/jaspr/internal/stack"
	"jaspr.dev/jaspr/testhelpers"
)

// newTestEngine builds an engine over a fresh scene with a deterministic id
// source and a no-op clock.
func newTestEngine(t *testing.T) (*testhelpers.Scene, *stack.Engine) {
	t.Helper()

	scene := testhelpers.NewScene("origin", "main")
	cfg := &config.Config{
		Remote:       "origin",
		TargetBranch: "main",
		BranchPrefix: "jaspr",
		StackPrefix:  "jaspr-stack",
		MergePoll:    time.Second,
	}

	eng := stack.New(scene.Git, scene.GitHub, cfg, output.NewTestSplog(io.Discard))
	seq := 0
	eng.SetIDSource(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	})
	eng.SetSleep(func(time.Duration) {})
	return scene, eng
}
