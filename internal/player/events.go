package player

const eventBufferSize = 16

// ChangeKind classifies controller change events.
type ChangeKind int

const (
	// ChangeSnapshot is emitted when the now-playing snapshot is replaced.
	ChangeSnapshot ChangeKind = iota
	// ChangeState is emitted on state machine transitions.
	ChangeState
	// ChangeProgress is emitted on media timeupdate events and seeks.
	ChangeProgress
)

// Change notifies subscribers that controller state moved; they re-read
// the state they care about through the accessor methods.
type Change struct {
	Kind ChangeKind
}

// Subscription provides a change channel for one subscriber.
type Subscription struct {
	Changes <-chan Change
	Done    <-chan struct{}

	changes chan Change
	done    chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		changes: make(chan Change, eventBufferSize),
		done:    make(chan struct{}),
	}
	s.Changes = s.changes
	s.Done = s.done
	return s
}

func (s *Subscription) close() {
	close(s.done)
}

// send delivers a change without blocking; a full buffer drops the event,
// which is safe because subscribers re-read state on every change.
func (s *Subscription) send(c Change) {
	select {
	case s.changes <- c:
	default:
	}
}
