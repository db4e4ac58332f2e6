package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps main-loop timers sorted by wake time. It is only touched
// from the main context, so unlike capture state it needs no masking.
type Scheduler struct {
	list *Timer
	now  uint32
}

// Schedule adds a timer to the schedule
func (s *Scheduler) Schedule(t *Timer) {
	s.insert(t)
}

// Now returns the time passed to the current (or last) Dispatch
func (s *Scheduler) Now() uint32 {
	return s.now
}

// insert inserts a timer in sorted order by WakeTime
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || timerIsBefore(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !timerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer whose WakeTime is at or before now and returns
// how many handlers ran.
func (s *Scheduler) Dispatch(now uint32) int {
	s.now = now
	ran := 0
	for s.list != nil && !timerIsBefore(now, s.list.WakeTime) {
		timer := s.list
		s.list = timer.Next
		timer.Next = nil

		ran++
		if timer.Handler(timer) == SF_RESCHEDULE {
			s.insert(timer)
		}
	}
	return ran
}
