package platform

import (
	"github.com/xraph/bazaar/types"
)

// State is the single-row platform account: the current owner principal, the
// accumulated platform fee balance, and the content id counter. The counter
// equals the number of content records ever created; the fee balance is the
// sum of accrued fees minus completed withdrawals.
type State struct {
	types.Entity
	Owner          types.Principal `json:"owner"`
	FeeBalance     types.Credits   `json:"fee_balance"`
	ContentCounter int64           `json:"content_counter"`
}

// Clone returns a copy of the state safe to hand to callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
