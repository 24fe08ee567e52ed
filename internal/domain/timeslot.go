package domain

import "mobilizewarehouse/internal/tabular"

// Timeslot is one row of the timeslots dimension.
type Timeslot struct {
	ID           *int64
	StartDate    string
	EndDate      string
	IsFull       *bool
	Instructions *string
}

func (t Timeslot) Record() tabular.Record {
	return tabular.Record{
		"id":           t.ID,
		"start_date":   t.StartDate,
		"end_date":     t.EndDate,
		"is_full":      t.IsFull,
		"instructions": t.Instructions,
	}
}
