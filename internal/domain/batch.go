package domain

import (
	"fmt"

	"mobilizewarehouse/internal/tabular"
)

// Table names, in the order sinks receive them.
const (
	TableEvents      = "events"
	TablePersons     = "persons"
	TableTimeslots   = "timeslots"
	TableAttendances = "attendances"
)

// Dimension is an id-keyed set of rows that keeps the first row inserted for
// each id and remembers insertion order.
type Dimension[T any] struct {
	rows  map[int64]T
	order []int64
}

func NewDimension[T any]() *Dimension[T] {
	return &Dimension[T]{rows: make(map[int64]T)}
}

// Insert stores row under id unless id is already present. It reports whether
// the row was stored.
func (d *Dimension[T]) Insert(id int64, row T) bool {
	if _, ok := d.rows[id]; ok {
		return false
	}
	d.rows[id] = row
	d.order = append(d.order, id)
	return true
}

func (d *Dimension[T]) Get(id int64) (T, bool) {
	row, ok := d.rows[id]
	return row, ok
}

func (d *Dimension[T]) Len() int {
	return len(d.order)
}

// Rows returns the rows in insertion order.
func (d *Dimension[T]) Rows() []T {
	out := make([]T, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.rows[id])
	}
	return out
}

// DegradedCounts counts dimension rows dropped because the source had no id.
type DegradedCounts struct {
	Events    int `json:"events"`
	Timeslots int `json:"timeslots"`
	Persons   int `json:"persons"`
}

// Batch is the normalized output of one run.
type Batch struct {
	Events      *Dimension[Event]
	Timeslots   *Dimension[Timeslot]
	Persons     *Dimension[Person]
	Attendances []Attendance
	Degraded    DegradedCounts
}

func NewBatch() *Batch {
	return &Batch{
		Events:    NewDimension[Event](),
		Timeslots: NewDimension[Timeslot](),
		Persons:   NewDimension[Person](),
	}
}

// Tables materializes the four tables. An empty table still carries the
// header of its entity.
func (b *Batch) Tables() ([]*tabular.Table, error) {
	events, err := buildTable(TableEvents, b.Events.Rows(), Event.Record)
	if err != nil {
		return nil, err
	}
	persons, err := buildTable(TablePersons, b.Persons.Rows(), Person.Record)
	if err != nil {
		return nil, err
	}
	timeslots, err := buildTable(TableTimeslots, b.Timeslots.Rows(), Timeslot.Record)
	if err != nil {
		return nil, err
	}
	attendances, err := buildTable(TableAttendances, b.Attendances, Attendance.Record)
	if err != nil {
		return nil, err
	}
	return []*tabular.Table{events, persons, timeslots, attendances}, nil
}

func buildTable[T any](name string, rows []T, record func(T) tabular.Record) (*tabular.Table, error) {
	if len(rows) == 0 {
		var zero T
		return tabular.NewEmpty(name, record(zero).Columns()), nil
	}
	records := make([]tabular.Record, len(rows))
	for i, r := range rows {
		records[i] = record(r)
	}
	t, err := tabular.FromRecords(name, records)
	if err != nil {
		return nil, fmt.Errorf("build %s table: %w", name, err)
	}
	return t, nil
}
