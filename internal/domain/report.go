package domain

// ReportRecord is one aggregated (user, ISO week) row of the weekly
// speed report. Records are never persisted; the Record id is assigned
// in grouping order and stays stable when a filter drops rows.
type ReportRecord struct {
	Record   int     `json:"record"`
	UserID   string  `json:"user"`
	Week     int     `json:"week"`
	Distance int     `json:"distance"` // total meters
	Duration int     `json:"duration"` // total minutes
	AvgSpeed float64 `json:"avg_speed"`
}
