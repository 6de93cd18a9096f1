package models

// DailyStats is a per-day count used by the dashboard charts.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyAmount is a per-day payment sum.
type DailyAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}
