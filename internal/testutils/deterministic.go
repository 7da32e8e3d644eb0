package testutils

import (
	"fmt"
	"sync"
	"time"
)

var (
	idCounter uint64
	idMutex   sync.Mutex
)

// BaseTime is the first instant handed out by NewClock.
var BaseTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicUUID returns UUID-shaped ids in sequence:
// 00000001-0000-4000-8000-000000000001, 00000002-..., and so on.
func DeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()
	idCounter++
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

// NewClock returns a clock that starts at BaseTime and advances one second per call.
func NewClock() func() time.Time {
	var mu sync.Mutex
	next := BaseTime
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}
