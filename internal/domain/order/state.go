package order

import "fmt"

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	Terminal() bool
	Next(to Status) (OrderState, error)
}

var states = map[Status]OrderState{
	StatusPending:    pendingState{},
	StatusProcessing: processingState{},
	StatusShipped:    shippedState{},
	StatusDelivered:  deliveredState{},
	StatusCancelled:  cancelledState{},
}

func stateFor(s Status) (OrderState, error) {
	st, ok := states[s]
	if !ok {
		return nil, fmt.Errorf("order: unknown status %q", s)
	}
	return st, nil
}

func (o *Order) currentState() (OrderState, error) {
	if o.state == nil || o.state.Status() != o.Status {
		st, err := stateFor(o.Status)
		if err != nil {
			return nil, err
		}
		o.state = st
	}
	return o.state, nil
}

// TransitionTo moves the order to status to. Any non-terminal order may
// be cancelled. Disallowed moves leave the order untouched and return
// ErrInvalidStateTransition.
func (o *Order) TransitionTo(to Status) error {
	cur, err := o.currentState()
	if err != nil {
		return err
	}
	var next OrderState = cancelledState{}
	if to != StatusCancelled || cur.Terminal() {
		if next, err = cur.Next(to); err != nil {
			return err
		}
	}
	o.state = next
	o.Status = next.Status()
	o.touch()
	return nil
}

func invalid(from, to Status) error {
	e := *ErrInvalidStateTransition
	e.Message = fmt.Sprintf("order: cannot move from %s to %s", from, to)
	return &e
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }
func (pendingState) Terminal() bool { return false }

func (s pendingState) Next(to Status) (OrderState, error) {
	switch to {
	case StatusProcessing:
		return processingState{}, nil
	}
	return nil, invalid(s.Status(), to)
}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }
func (processingState) Terminal() bool { return false }

func (s processingState) Next(to Status) (OrderState, error) {
	switch to {
	case StatusShipped:
		return shippedState{}, nil
	}
	return nil, invalid(s.Status(), to)
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }
func (shippedState) Terminal() bool { return false }

func (s shippedState) Next(to Status) (OrderState, error) {
	switch to {
	case StatusDelivered:
		return deliveredState{}, nil
	}
	return nil, invalid(s.Status(), to)
}

type deliveredState struct{}

func (deliveredState) Status() Status { return StatusDelivered }
func (deliveredState) Terminal() bool { return true }

func (s deliveredState) Next(to Status) (OrderState, error) {
	return nil, invalid(s.Status(), to)
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }
func (cancelledState) Terminal() bool { return true }

func (s cancelledState) Next(to Status) (OrderState, error) {
	return nil, invalid(s.Status(), to)
}
