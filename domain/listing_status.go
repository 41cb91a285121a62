package domain

// ListingStatus is the moderation state of a listing
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
	StatusSold     ListingStatus = "sold"
)

// IsValid reports whether s is a known status
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	}
	return false
}

// ListingAction names a lifecycle operation that changes a listing's status
type ListingAction string

const (
	ActionApprove  ListingAction = "approve"
	ActionReject   ListingAction = "reject"
	ActionRenew    ListingAction = "renew"
	ActionEdit     ListingAction = "edit"
	ActionMarkSold ListingAction = "mark_sold"
)

type transition struct {
	from []ListingStatus
	to   ListingStatus
}

// Deletion (owner, admin or sweep) removes the row and is allowed from every state, so it is not listed here.
var transitions = map[ListingAction]transition{
	ActionApprove:  {from: []ListingStatus{StatusPending}, to: StatusApproved},
	ActionReject:   {from: []ListingStatus{StatusPending}, to: StatusRejected},
	ActionRenew:    {from: []ListingStatus{StatusApproved}, to: StatusApproved},
	ActionEdit:     {from: []ListingStatus{StatusPending, StatusApproved, StatusRejected}, to: StatusPending},
	ActionMarkSold: {from: []ListingStatus{StatusApproved}, to: StatusSold},
}

// Transition returns the target status of action applied to a listing in state from.
// It returns ErrInvalidTransition when the table does not permit the move.
func Transition(from ListingStatus, action ListingAction) (ListingStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", ErrInvalidTransition
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return "", ErrInvalidTransition
}

// SourceStates returns the states from which action is permitted
func SourceStates(action ListingAction) []ListingStatus {
	t, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]ListingStatus, len(t.from))
	copy(out, t.from)
	return out
}
