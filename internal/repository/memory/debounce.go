package memory

import (
	"context"
	"strings"
	"time"
)

type debounceRepository struct {
	s *Store
}

func (r *debounceRepository) GetLastAccepted(ctx context.Context, serial string, date time.Time) (*time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	last, ok := r.s.debounceState[dayKey(serial, date)]
	if !ok {
		return nil, nil
	}
	return &last, nil
}

func (r *debounceRepository) SetLastAccepted(ctx context.Context, serial string, date time.Time, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.debounceState[dayKey(serial, date)] = at
	return nil
}

func (r *debounceRepository) PurgeBefore(ctx context.Context, date time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := date.Format("2006-01-02")
	var purged int64
	for key := range r.s.debounceState {
		// keys end with the ISO date, which sorts lexically
		if key[strings.LastIndexByte(key, '|')+1:] < cutoff {
			delete(r.s.debounceState, key)
			purged++
		}
	}
	return purged, nil
}
