package review

import "fmt"

// State is the lifecycle position of an extracted event. Candidates enter
// pending, a reviewer moves them to upcoming or rejected, and the sweeper
// retires upcoming events once their retention window passes.
type State string

const (
	StatePending  State = "pending"
	StateUpcoming State = "upcoming"
	StateRejected State = "rejected"
	StateExpired  State = "expired"
)

var transitions = map[State][]State{
	StatePending:  {StateUpcoming, StateRejected},
	StateUpcoming: {StateExpired},
}

// Transition validates a state change. Rejected and expired are terminal.
func Transition(from, to State) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s", from, to)
}
