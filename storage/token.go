package storage

import "sync"

// ObservationToken cancels one observer registration. Cancel is idempotent
// and only ever removes the registration that returned the token, even if
// the same key has since been observed again.
type ObservationToken struct {
	once   sync.Once
	cancel func()
}

func newToken(cancel func()) *ObservationToken {
	return &ObservationToken{cancel: cancel}
}

// Cancel removes the registration. Calls after the first do nothing.
func (t *ObservationToken) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
	})
}
