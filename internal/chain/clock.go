// Package chain источник текущей высоты блока, относительно которой
// проверяются дедлайны и окна споров.
package chain

import (
	"sync"
	"time"
)

// Clock возвращает текущую высоту блока.
type Clock interface {
	Height() uint64
}

// TimeClock вычисляет высоту по времени: один блок за Interval начиная с Genesis.
type TimeClock struct {
	Genesis  time.Time
	Interval time.Duration
	now      func() time.Time
}

func NewTimeClock(genesis time.Time, interval time.Duration) *TimeClock {
	return &TimeClock{Genesis: genesis, Interval: interval, now: time.Now}
}

// Height до genesis равна нулю.
func (c *TimeClock) Height() uint64 {
	elapsed := c.now().Sub(c.Genesis)
	if elapsed < 0 || c.Interval <= 0 {
		return 0
	}
	return uint64(elapsed / c.Interval)
}

// ManualClock высота, управляемая вручную. Используется в тестах и CLI.
type ManualClock struct {
	mu     sync.RWMutex
	height uint64
}

func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

func (c *ManualClock) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Set устанавливает высоту.
func (c *ManualClock) Set(height uint64) {
	c.mu.Lock()
	c.height = height
	c.mu.Unlock()
}

// Advance сдвигает высоту на n блоков.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	c.height += n
	c.mu.Unlock()
}
