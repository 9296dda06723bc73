package order

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

// Cancellable reports whether an order in this status may move to CANCELLED.
func (s Status) Cancellable() bool {
	return s == StatusPending
}
