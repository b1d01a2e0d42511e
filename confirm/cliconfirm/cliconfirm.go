// Package cliconfirm implements core.Confirmer as a terminal yes/no prompt,
// grounded directly on original_source/backend/src/cli.py's confirmation
// rendering: show the tool name and the confirmation gate's reason, then
// block on a y/n answer. The action's own reasoning and expected outcome
// are not shown.
package cliconfirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer reads yes/no answers from in and writes prompts to out.
type Confirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Confirmer reading from in and writing prompts to out.
func New(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: bufio.NewReader(in), out: out}
}

// Confirm renders toolName and reason, then blocks for a y/n answer.
// Context cancellation is not honored mid-read since bufio.Reader has no
// cancellable read path; callers needing a hard timeout should wrap this
// collaborator rather than this method.
func (c *Confirmer) Confirm(ctx context.Context, toolName, reason string) (bool, error) {
	fmt.Fprintf(c.out, "\n[confirmation required]\n  tool:   %s\n  reason: %s\nProceed? [y/N] ", toolName, reason)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
