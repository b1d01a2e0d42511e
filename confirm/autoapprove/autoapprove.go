// Package autoapprove implements core.Confirmer by approving every request
// without prompting, for headless/CI runs where no operator is attached.
package autoapprove

import "context"

// Confirmer approves every dangerous or storage action unconditionally.
type Confirmer struct{}

// New returns an always-approve Confirmer.
func New() Confirmer {
	return Confirmer{}
}

// Confirm always returns true.
func (Confirmer) Confirm(ctx context.Context, toolName, reason string) (bool, error) {
	return true, nil
}
