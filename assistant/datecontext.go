package assistant

import (
	"fmt"
	"time"
)

// DateContext is the calendar information given to the model so it can
// resolve relative expressions such as "tomorrow" or "this weekend".
type DateContext struct {
	Weekday       string
	Month         string
	Day           int
	Year          int
	Date          string
	Time          string
	Tomorrow      string
	NextWeek      string
	SaturdayDate  string
	SundayDate    string
	TomorrowAt3PM string
}

// NewDateContext derives the context from now. Weeks start on Monday.
func NewDateContext(now time.Time) DateContext {
	weekday := (int(now.Weekday()) + 6) % 7
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	return DateContext{
		Weekday:       now.Weekday().String(),
		Month:         now.Month().String(),
		Day:           now.Day(),
		Year:          now.Year(),
		Date:          now.Format(time.DateOnly),
		Time:          now.Format("15:04"),
		Tomorrow:      midnight.AddDate(0, 0, 1).Format(time.DateOnly),
		NextWeek:      now.AddDate(0, 0, 7-weekday).Format(time.DateOnly),
		SaturdayDate:  now.AddDate(0, 0, 5-weekday).Format(time.DateOnly),
		SundayDate:    now.AddDate(0, 0, 6-weekday).Format(time.DateOnly),
		TomorrowAt3PM: time.Date(now.Year(), now.Month(), now.Day()+1, 15, 0, 0, 0, now.Location()).Format("2006-01-02T15:04"),
	}
}

func (dc DateContext) String() string {
	return fmt.Sprintf(`Current date and time information:
- Today is %s, %s %d, %d
- Current date: %s
- Current time: %s

Use this information to interpret relative time expressions like:
- "tomorrow" = %s
- "next week" = week starting %s
- "this weekend" = %s or %s
`, dc.Weekday, dc.Month, dc.Day, dc.Year, dc.Date, dc.Time, dc.Tomorrow, dc.NextWeek, dc.SaturdayDate, dc.SundayDate)
}
