package purge

import "time"

// CooldownPolicy models the instance's delete rate budget: a fixed pause
// every BatchSize successful deletions, and the same pause once after an
// HTTP 429 before a single retry. Sleep is injectable so tests can run with
// zero-duration pauses.
type CooldownPolicy struct {
	BatchSize int
	Cooldown  time.Duration
	Sleep     func(time.Duration)
}

// DefaultCooldown mirrors the instance-side budget: pause 30 minutes every
// 30 deletions.
func DefaultCooldown() CooldownPolicy {
	return CooldownPolicy{BatchSize: 30, Cooldown: 30 * time.Minute, Sleep: time.Sleep}
}

// ShouldPause reports whether the running deleted count has just exhausted
// the batch budget: true on every positive multiple of BatchSize.
func (p CooldownPolicy) ShouldPause(deleted int) bool {
	return p.BatchSize > 0 && deleted > 0 && deleted%p.BatchSize == 0
}

// Pause blocks for the cooldown period.
func (p CooldownPolicy) Pause() {
	if p.Sleep != nil {
		p.Sleep(p.Cooldown)
	}
}
