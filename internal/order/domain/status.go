package domain

// Status is shared by orders and payments.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusExpired Status = "EXPIRED"
	StatusFailed  Status = "FAILED"
	StatusPaid    Status = "PAID"
)

// statusRank orders statuses so that reconciliation converges regardless of delivery order.
// A status may only move to one of strictly higher rank; PAID is absorbing.
var statusRank = map[Status]int{
	StatusPending: 0,
	StatusExpired: 1,
	StatusFailed:  2,
	StatusPaid:    3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// CanTransitionTo reports whether next outranks s.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Predecessors lists the statuses that may move to s, for compare-and-set updates.
func (s Status) Predecessors() []string {
	to, ok := statusRank[s]
	if !ok {
		return nil
	}
	out := make([]string, 0, to)
	for _, candidate := range []Status{StatusPending, StatusExpired, StatusFailed, StatusPaid} {
		if statusRank[candidate] < to {
			out = append(out, string(candidate))
		}
	}
	return out
}
