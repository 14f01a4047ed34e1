package domain

// Status is the order lifecycle state.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusReturned       Status = "RETURNED"
)

// transitions is the full set of legal status edges. The happy path moves
// forward one step at a time; CANCELLED is reachable only from PENDING and
// RETURNED only from DELIVERED. Both are terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusProcessing},
	StatusProcessing:     {StatusShipped},
	StatusShipped:        {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusReturned},
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
