package consultation

import "time"

// VitalSigns is one capture during a session. Values are stored exactly as
// given; plausibility checks only annotate.
type VitalSigns struct {
	HeartRate       int       `json:"heart_rate"`       // bpm
	RespiratoryRate int       `json:"respiratory_rate"` // breaths/min
	Temperature     float64   `json:"temperature"`      // Celsius
	Weight          float64   `json:"weight"`           // kg
	Height          float64   `json:"height"`           // cm
	TakenAt         time.Time `json:"taken_at"`
}

// VitalFlag is an advisory produced by CheckVitals. Flags warn, they never
// block saving.
type VitalFlag struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Clinical plausibility thresholds.
const (
	maxHeartRate       = 100
	minHeartRate       = 60
	maxRespiratoryRate = 20
	minRespiratoryRate = 12
	maxTemperature     = 37.5
	minTemperature     = 35.5
	maxWeight          = 300
	maxHeight          = 250
)

// CheckVitals applies the plausibility thresholds and returns advisory flags
// for every value outside them. Pure; independent of any UI cadence.
func CheckVitals(v VitalSigns) []VitalFlag {
	var flags []VitalFlag

	if v.HeartRate > maxHeartRate {
		flags = append(flags, VitalFlag{
			Field:   "heart_rate",
			Code:    "possible_tachycardia",
			Message: "heart rate above 100 bpm, possible tachycardia",
		})
	} else if v.HeartRate < minHeartRate {
		flags = append(flags, VitalFlag{
			Field:   "heart_rate",
			Code:    "possible_bradycardia",
			Message: "heart rate below 60 bpm, possible bradycardia",
		})
	}

	if v.RespiratoryRate > maxRespiratoryRate {
		flags = append(flags, VitalFlag{
			Field:   "respiratory_rate",
			Code:    "possible_tachypnea",
			Message: "respiratory rate above 20/min, possible tachypnea",
		})
	} else if v.RespiratoryRate < minRespiratoryRate {
		flags = append(flags, VitalFlag{
			Field:   "respiratory_rate",
			Code:    "possible_bradypnea",
			Message: "respiratory rate below 12/min, possible bradypnea",
		})
	}

	if v.Temperature > maxTemperature {
		flags = append(flags, VitalFlag{
			Field:   "temperature",
			Code:    "possible_fever",
			Message: "temperature above 37.5C, possible fever",
		})
	} else if v.Temperature < minTemperature {
		flags = append(flags, VitalFlag{
			Field:   "temperature",
			Code:    "possible_hypothermia",
			Message: "temperature below 35.5C, possible hypothermia",
		})
	}

	if v.Weight > maxWeight {
		flags = append(flags, VitalFlag{
			Field:   "weight",
			Code:    "implausible_weight",
			Message: "weight above 300, check units",
		})
	}

	if v.Height > maxHeight {
		flags = append(flags, VitalFlag{
			Field:   "height",
			Code:    "implausible_height",
			Message: "height above 250, check units",
		})
	}

	return flags
}
