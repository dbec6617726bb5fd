package domain

// statusRank orders the non-cancelled states of the lifecycle
var statusRank = map[OrderStatus]int{
	OrderStatusCreated:    0,
	OrderStatusAssigned:   1,
	OrderStatusInProgress: 2,
	OrderStatusCompleted:  3,
}

// CanTransitionTo reports whether an order in s may move to target.
// Forward moves may skip states; cancelled is reachable from any open state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !target.IsValid() || s.IsTerminal() || s == target {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	return statusRank[target] > from
}

// ValidateTransition returns an InvalidTransitionError when s cannot move to target
func (s OrderStatus) ValidateTransition(target OrderStatus) error {
	if !s.CanTransitionTo(target) {
		return &InvalidTransitionError{From: s, To: target}
	}
	return nil
}
