package domain

type Trip struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	WakeupTime string `json:"wakeup_time"`
	SleepTime  string `json:"sleep_time"`
}

// Days lists every calendar date between StartDate and EndDate inclusive.
// Unparseable bounds yield no days.
func (t *Trip) Days() []Day {
	start, err := ParseDate(t.StartDate)
	if err != nil {
		return nil
	}
	end, err := ParseDate(t.EndDate)
	if err != nil || end.Before(start) {
		return nil
	}

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, NewDay(d))
	}
	return days
}

// HasDay reports whether date falls inside the trip.
func (t *Trip) HasDay(date string) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	start, err := ParseDate(t.StartDate)
	if err != nil {
		return false
	}
	end, err := ParseDate(t.EndDate)
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}
