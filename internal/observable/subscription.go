package observable

import "sync"

// Subscription is a handle to a registered listener. Close releases it
// exactly once; further calls are no-ops.
type Subscription struct {
	once    sync.Once
	release func()
}

func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
