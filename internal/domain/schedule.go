package domain

import (
	"net/url"
	"strings"
	"time"
)

// mapSearchURL is the Google Maps search endpoint used for navigation links.
const mapSearchURL = "https://www.google.com/maps/search/"

// Kind distinguishes the variants of a schedule entry.
type Kind string

const (
	KindActivity  Kind = "activity"
	KindTransport Kind = "transport"
	KindOther     Kind = "other"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindActivity, KindTransport, KindOther:
		return true
	default:
		return false
	}
}

func (k Kind) IsTransport() bool {
	return k == KindTransport
}

// TransportMode is the means of travel of a single transport leg.
type TransportMode string

const (
	ModeSubway TransportMode = "subway"
	ModeWalk   TransportMode = "walk"
	ModeTrain  TransportMode = "train"
	ModeBus    TransportMode = "bus"
	ModeTaxi   TransportMode = "taxi"
	ModeFlight TransportMode = "flight"
	ModeFerry  TransportMode = "ferry"
)

type TransportSegment struct {
	Mode        TransportMode `json:"mode"`
	FromStation string        `json:"from_station"`
	ToStation   string        `json:"to_station"`
}

// TimeField names the user-editable time fields of a ScheduleItem.
type TimeField string

const (
	FieldStartTime TimeField = "start_time"
	FieldDuration  TimeField = "duration"
	FieldEndTime   TimeField = "end_time"
)

// DefaultDuration is assigned to newly created items.
const DefaultDuration = "01:00"

// DateLayout is the layout of ScheduleItem.DayDate and Day.Date.
const DateLayout = "2006-01-02"

// ScheduleItem is one entry of a day's itinerary. An empty DayDate means the
// item sits in the pending pool and is not part of any chain.
type ScheduleItem struct {
	ID                string             `json:"id"`
	DayDate           string             `json:"day_date"`
	Kind              Kind               `json:"type"`
	Title             string             `json:"title"`
	Location          string             `json:"location"`
	Notes             string             `json:"notes"`
	StartTime         string             `json:"start_time"`
	Duration          string             `json:"duration"`
	EndTime           string             `json:"end_time"`
	SortOrder         int                `json:"sort_order"`
	TransportSegments []TransportSegment `json:"transport_segments"`
	Revision          int64              `json:"revision"`
}

// IsPending reports whether the item is not assigned to a day.
func (i *ScheduleItem) IsPending() bool {
	return i.DayDate == ""
}

// DisplayTitle returns "origin → destination" across all transport segments,
// falling back to the free-text title.
func (i *ScheduleItem) DisplayTitle() string {
	if len(i.TransportSegments) == 0 {
		return i.Title
	}
	first := i.TransportSegments[0]
	last := i.TransportSegments[len(i.TransportSegments)-1]
	return first.FromStation + " → " + last.ToStation
}

// MapURL returns a Google Maps search link for the location, or "" when the
// item has none.
func (i *ScheduleItem) MapURL() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		return ""
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", location)
	return mapSearchURL + "?" + q.Encode()
}

// Clone returns a deep copy so the segment slice is not shared.
func (i ScheduleItem) Clone() ScheduleItem {
	if i.TransportSegments != nil {
		segments := make([]TransportSegment, len(i.TransportSegments))
		copy(segments, i.TransportSegments)
		i.TransportSegments = segments
	}
	return i
}

// Day is a calendar date of the trip with its display label.
type Day struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// NewDay builds a Day with a "01.02(Mon)" style label.
func NewDay(date time.Time) Day {
	return Day{
		Date:  date.Format(DateLayout),
		Label: date.Format("01.02") + "(" + date.Format("Mon") + ")",
	}
}

// ParseDate validates a DayDate string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
