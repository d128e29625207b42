package palette

import (
	"context"
	"errors"
	"time"
)

// Submit schedules a dispatch of query after the debounce delay. A later
// Submit within the delay replaces it. done receives the outcome of the
// dispatch unless it was superseded or the session closed meanwhile, in
// which case done is never called.
func (s *Session) Submit(query string, done func(Results, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.e.opts.Debounce, func() {
		res, err := s.Dispatch(context.Background(), query)
		if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrSessionClosed) {
			return
		}
		if done != nil {
			done(res, err)
		}
	})
}
