// Package gatelog tracks trucks entering and leaving the facility. An "out"
// event pairs with the vehicle's most recent unmatched "in"; dwell time and
// overstay alerts derive from the unmatched entries.
package gatelog

import "time"

// Direction is the gate event direction.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether the direction is in or out.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Log is one gate event. ExitLogID is set on an "in" entry once an "out"
// pairs with it; nil means the vehicle is still inside.
type Log struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	Plate      string    `json:"plate"`
	Driver     string    `json:"driver"`
	Direction  Direction `json:"direction"`
	Purpose    string    `json:"purpose"`
	Note       string    `json:"note"`
	At         time.Time `json:"at"`
	ExitLogID  *int64    `json:"exit_log_id,omitempty"`
	RecordedBy int64     `json:"recorded_by"`
}

// RecordRequest is a gate event to record. A zero At means "now".
// ConfirmReentry acknowledges recording an "in" for a vehicle already inside.
type RecordRequest struct {
	VehicleID      int64     `json:"vehicle_id" validate:"required,gt=0"`
	Direction      Direction `json:"direction" validate:"required"`
	Purpose        string    `json:"purpose"`
	Note           string    `json:"note"`
	At             time.Time `json:"at"`
	ConfirmReentry bool      `json:"confirm_reentry"`
}

// ParkedAlert is an unmatched "in" entry older than the alert threshold.
type ParkedAlert struct {
	LogID     int64     `json:"log_id"`
	VehicleID int64     `json:"vehicle_id"`
	Plate     string    `json:"plate"`
	Driver    string    `json:"driver"`
	At        time.Time `json:"at"`
	HoursIn   int       `json:"hours_in"`
}

// DayStats is gate traffic for one calendar day.
type DayStats struct {
	Date   string `json:"date"`
	In     int    `json:"in"`
	Out    int    `json:"out"`
	Parked int    `json:"parked"`
}

// StatsReport is gate traffic per day over a range, with range totals.
// Parked counts in-events still unmatched when the report runs.
type StatsReport struct {
	From        time.Time  `json:"from"`
	To          time.Time  `json:"to"`
	Days        []DayStats `json:"days"`
	TotalIn     int        `json:"total_in"`
	TotalOut    int        `json:"total_out"`
	TotalParked int        `json:"total_parked"`
}

// ListFilter narrows log listings. A zero VehicleID matches all vehicles and
// an empty Direction matches both. Parked restricts to unmatched "in" entries.
type ListFilter struct {
	VehicleID int64
	Direction Direction
	Parked    bool
	From      time.Time
	To        time.Time
	Limit     int
}
