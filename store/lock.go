package store

import (
	"context"
	"fmt"
	"sync"

	"railway-booking/models"
)

// trainLocks hands out one exclusivity token per train. Tokens are buffered
// channels so that waiting honours context cancellation.
type trainLocks struct {
	mu     sync.Mutex
	tokens map[int64]chan struct{}
}

func newTrainLocks() *trainLocks {
	return &trainLocks{tokens: map[int64]chan struct{}{}}
}

func (l *trainLocks) token(trainID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.tokens[trainID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.tokens[trainID] = ch
	}
	return ch
}

// acquire blocks until the train's token is held. The returned release func
// must be called exactly once.
func (l *trainLocks) acquire(ctx context.Context, trainID int64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("train %d: %w: %v", trainID, models.ErrLockTimeout, err)
	}

	ch := l.token(trainID)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("train %d: %w: %v", trainID, models.ErrLockTimeout, ctx.Err())
	}
}
