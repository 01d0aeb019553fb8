package review

import "fmt"

// Decision is the set of review actions the current findings permit. It is
// derived from severity counts on every call and carries no other state.
type Decision struct {
	ApproveAllowed        bool   `json:"approveAllowed"`
	RequestChangesAllowed bool   `json:"requestChangesAllowed"`
	Rationale             string `json:"rationale"`
}

// Decide maps severity counts to permitted review actions. Approval requires
// no critical and no high findings; requesting changes requires at least one
// finding of any severity.
func Decide(c SeverityCounts) Decision {
	d := Decision{
		ApproveAllowed:        c.Critical == 0 && c.High == 0,
		RequestChangesAllowed: c.Total() > 0,
	}
	switch {
	case c.Total() == 0:
		d.Rationale = "no findings"
	case !d.ApproveAllowed:
		d.Rationale = fmt.Sprintf("blocked by %d critical and %d high findings", c.Critical, c.High)
	default:
		d.Rationale = fmt.Sprintf("%d findings, none critical or high", c.Total())
	}
	return d
}
