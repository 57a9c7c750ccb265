package orchestrator

import "time"

// Exchange session window, local to the configured timezone.
const (
	sessionOpenHour    = 8
	sessionOpenMinute  = 30
	sessionCloseHour   = 17
	sessionCloseMinute = 0

	// The conference never runs before this time of day, so the advisory
	// sees a settled overnight picture.
	conferenceHour   = 8
	conferenceMinute = 55
)

// InTradingHours reports whether t falls inside the Monday-Friday session
// window in the given location.
func InTradingHours(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	openMin := sessionOpenHour*60 + sessionOpenMinute
	closeMin := sessionCloseHour*60 + sessionCloseMinute
	return minutes >= openMin && minutes < closeMin
}

// afterConferenceTime reports whether t has passed the daily conference
// threshold.
func afterConferenceTime(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= conferenceHour*60+conferenceMinute
}

// dayKey is the calendar-day marker used for the once-per-day rule.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
