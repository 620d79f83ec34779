package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MinuteOfDay is a time of day expressed as minutes from midnight.
// It marshals as "HH:MM".
type MinuteOfDay int

const minutesPerDay = 24 * 60

func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}

	m := MinuteOfDay(hours*60 + minutes)
	if m > minutesPerDay {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return m, nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m MinuteOfDay) Add(minutes int) MinuteOfDay {
	return m + MinuteOfDay(minutes)
}

func (m MinuteOfDay) Before(other MinuteOfDay) bool {
	return m < other
}

func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *MinuteOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseMinuteOfDay(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
