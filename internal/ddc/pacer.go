package ddc

import "time"

// CommandDelay is the minimum settling time between two hardware commands.
const CommandDelay = 10 * time.Millisecond

// Pacer serialises hardware commands and keeps a minimum gap between them.
// One Pacer is shared by every display of a process so the gap also holds
// across displays sitting on the same adapter.
type Pacer struct {
	delay time.Duration
	now   func() time.Time
	sleep func(time.Duration)
	last  time.Time
	ops   int
}

// PacerOption customises a Pacer.
type PacerOption func(*Pacer)

// WithClock replaces the time source and sleep function, mainly for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) PacerOption {
	return func(p *Pacer) {
		if now != nil {
			p.now = now
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// NewPacer returns a pacer enforcing delay between commands.
func NewPacer(delay time.Duration, opts ...PacerOption) *Pacer {
	p := &Pacer{
		delay: delay,
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do waits out the remaining gap since the previous command and runs fn.
func (p *Pacer) Do(fn func() error) error {
	if p.ops > 0 {
		if wait := p.delay - p.now().Sub(p.last); wait > 0 {
			p.sleep(wait)
		}
	}
	err := fn()
	p.last = p.now()
	p.ops++
	return err
}

// Sleep blocks for d using the pacer's sleep function.
func (p *Pacer) Sleep(d time.Duration) {
	p.sleep(d)
}

// Ops returns the number of commands issued so far.
func (p *Pacer) Ops() int {
	return p.ops
}
