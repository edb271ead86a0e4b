package state

// Idle is the name reported for users without an active session state.
const Idle = "idle"

// Named is implemented by state values that report a stable name for
// dispatch and logging.
type Named interface {
	Name() string
}

// Session stores the conversation state and loose temporary values of one user.
type Session[T any] struct {
	State    T
	Active   bool
	TempData map[string]any
}

func newSession[T any]() *Session[T] {
	return &Session[T]{TempData: make(map[string]any)}
}

// NameOf returns the state's name, or Idle when there is no active state.
func NameOf[T any](s *Session[T]) string {
	if s == nil || !s.Active {
		return Idle
	}
	if n, ok := any(s.State).(Named); ok {
		return n.Name()
	}
	return "unnamed"
}
