// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"github.com/sasha-s/go-deadlock"
)

type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

// readerWriterLatch reports lock order inversions and long waits when EnableDebug is set.
type readerWriterLatch struct {
	mutex *deadlock.RWMutex
}

func init() {
	deadlock.Opts.Disable = !EnableDebug
}

// SetDebug switches debug mode. Call it before any latch is taken.
func SetDebug(enabled bool) {
	EnableDebug = enabled
	deadlock.Opts.Disable = !enabled
}

func NewRWLatch() ReaderWriterLatch {
	latch := readerWriterLatch{}
	latch.mutex = new(deadlock.RWMutex)

	return &latch
}

func (l *readerWriterLatch) WLock() {
	l.mutex.Lock()
}

func (l *readerWriterLatch) WUnlock() {
	l.mutex.Unlock()
}

func (l *readerWriterLatch) RLock() {
	l.mutex.RLock()
}

func (l *readerWriterLatch) RUnlock() {
	l.mutex.RUnlock()
}
