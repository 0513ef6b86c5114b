package entity

// TimerMode режим таймера
type TimerMode uint8

const (
	TimerOnce TimerMode = iota
	TimerRepeating
)

// Timer отсчитывает игровое время кадрами.
// Once: после срабатывания остаётся завершённым до Reset.
// Repeating: Finished истинно только в кадре, где прошёл очередной период.
type Timer struct {
	Duration     float64
	Elapsed      float64
	Mode         TimerMode
	finished     bool
	justFinished bool
}

// NewTimer создаёт таймер на duration секунд
func NewTimer(duration float64, mode TimerMode) *Timer {
	return &Timer{Duration: duration, Mode: mode}
}

// NewElapsedTimer создаёт уже завершённый одноразовый таймер (кулдаун, готовый сразу)
func NewElapsedTimer(duration float64) *Timer {
	return &Timer{Duration: duration, Elapsed: duration, Mode: TimerOnce, finished: true}
}

// Tick продвигает таймер на dt секунд
func (t *Timer) Tick(dt float64) {
	t.justFinished = false

	if t.Mode == TimerOnce && t.finished {
		return
	}

	t.Elapsed += dt
	if t.Elapsed < t.Duration {
		if t.Mode == TimerRepeating {
			t.finished = false
		}
		return
	}

	t.finished = true
	t.justFinished = true

	if t.Mode == TimerOnce {
		t.Elapsed = t.Duration
		return
	}

	if t.Duration <= 0 {
		t.Elapsed = 0
		return
	}
	for t.Elapsed >= t.Duration {
		t.Elapsed -= t.Duration
	}
}

// Finished таймер завершён (для Repeating только в кадре срабатывания)
func (t *Timer) Finished() bool {
	return t.finished
}

// JustFinished таймер сработал именно на последнем Tick
func (t *Timer) JustFinished() bool {
	return t.justFinished
}

// Reset сбрасывает таймер в начало
func (t *Timer) Reset() {
	t.Elapsed = 0
	t.finished = false
	t.justFinished = false
}

// Remaining оставшееся время до срабатывания
func (t *Timer) Remaining() float64 {
	r := t.Duration - t.Elapsed
	if r < 0 {
		return 0
	}
	return r
}
