package orders

type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusError     Status = "error"
	StatusUnpaid    Status = "unpaid"
)

// statusConfirmed is what the pre-migration admin panel wrote for a fulfilled
// order. Read as delivered, never written back.
const statusConfirmed Status = "confirmed"

// Normalize maps legacy status spellings onto the current set.
func Normalize(s string) Status {
	if Status(s) == statusConfirmed {
		return StatusDelivered
	}
	return Status(s)
}

// Terminal statuses short-circuit callback processing: once reached, no
// further side effects may run for the order.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusError
}

var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusPending: true, StatusUnpaid: true},
	StatusPending:   {StatusPending: true, StatusDelivered: true, StatusError: true, StatusUnpaid: true},
	StatusUnpaid:    {StatusPending: true},
	StatusDelivered: {},
	StatusError:     {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
