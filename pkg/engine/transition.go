package engine

import "github.com/clientflow/clientflow/pkg/model"

// IsApprovalTransition reports whether moving between the two statuses is a
// notifiable forward transition. Reverting from approved to pending is never
// announced; only forward progress is. The asymmetry is what keeps items
// flapping back and forth from producing duplicate or contradictory
// notifications before the set converges.
func IsApprovalTransition(previous, next model.ApprovalStatus) bool {
	return previous != model.ApprovalApproved && next == model.ApprovalApproved
}
