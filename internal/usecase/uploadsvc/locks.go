package uploadsvc

import "sync"

// uploadLocks выстраивает склейки одного uploadID в очередь внутри процесса.
// Без этого проигравшая склейка уходит в duplicate и удаляет части, которые
// победитель ещё не успел открыть.
type uploadLocks struct {
	mu    sync.Mutex
	locks map[string]*uploadLock
}

type uploadLock struct {
	mu   sync.Mutex
	refs int
}

// lock берёт замок uploadID и возвращает функцию освобождения.
func (l *uploadLocks) lock(uploadID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*uploadLock)
	}
	ul, ok := l.locks[uploadID]
	if !ok {
		ul = &uploadLock{}
		l.locks[uploadID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, uploadID)
		}
		l.mu.Unlock()
	}
}
