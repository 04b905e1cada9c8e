package orders

type Status string

// Placement only ever produces StatusPending; the rest of the lifecycle
// belongs to payment and fulfillment flows, which must transition from it.
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusFulfilled Status = "fulfilled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusFulfilled: true, StatusCancelled: true},
	StatusCancelled: {},
	StatusFulfilled: {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
