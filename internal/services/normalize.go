package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"mobilizewarehouse/internal/domain"
)

// built holds the four records derived from one raw attendance.
type built struct {
	event      domain.Event
	timeslot   domain.Timeslot
	person     domain.Person
	attendance domain.Attendance
}

// Normalizer turns raw attendances into the four warehouse tables.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer returns a Normalizer. A nil logger discards output.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{logger: logger}
}

// Normalize builds a fresh Batch from raws in one pass, in input order.
// Dimensions keep the first row seen per id; attendances keep one row per raw
// record. A record missing a required key aborts the batch with
// domain.ErrMalformedRecord.
func (n *Normalizer) Normalize(raws []domain.RawAttendance) (*domain.Batch, error) {
	batch := domain.NewBatch()
	for i := range raws {
		b, err := buildRecord(&raws[i])
		if err != nil {
			return nil, recordError(i, &raws[i], err)
		}
		n.accumulate(batch, i, b)
	}
	return batch, nil
}

// NormalizeChunks builds records concurrently, chunkSize raws per goroutine,
// then accumulates them in input order so first-seen-wins matches Normalize.
func (n *Normalizer) NormalizeChunks(ctx context.Context, raws []domain.RawAttendance, chunkSize int) (*domain.Batch, error) {
	if chunkSize <= 0 || chunkSize >= len(raws) {
		return n.Normalize(raws)
	}

	records := make([]built, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(raws); start += chunkSize {
		end := min(start+chunkSize, len(raws))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				b, err := buildRecord(&raws[i])
				if err != nil {
					return recordError(i, &raws[i], err)
				}
				records[i] = b
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := domain.NewBatch()
	for i, b := range records {
		n.accumulate(batch, i, b)
	}
	return batch, nil
}

func buildRecord(raw *domain.RawAttendance) (built, error) {
	if raw.Event == nil {
		return built{}, fmt.Errorf("attendance has no event: %w", domain.ErrMalformedRecord)
	}
	if raw.Timeslot == nil {
		return built{}, fmt.Errorf("attendance has no timeslot: %w", domain.ErrMalformedRecord)
	}
	if raw.Person == nil {
		return built{}, fmt.Errorf("attendance has no person: %w", domain.ErrMalformedRecord)
	}
	event, err := BuildEvent(raw.Event)
	if err != nil {
		return built{}, err
	}
	timeslot, err := BuildTimeslot(raw.Timeslot)
	if err != nil {
		return built{}, err
	}
	person, err := BuildPerson(raw.Person)
	if err != nil {
		return built{}, err
	}
	att, err := BuildAttendance(raw)
	if err != nil {
		return built{}, err
	}
	return built{
		event:      event,
		timeslot:   timeslot,
		person:     person,
		attendance: att,
	}, nil
}

func recordError(index int, raw *domain.RawAttendance, err error) error {
	return fmt.Errorf("attendance %d (id %d): %w", index, raw.ID, err)
}

func (n *Normalizer) accumulate(batch *domain.Batch, index int, b built) {
	if b.event.ID != nil {
		batch.Events.Insert(*b.event.ID, b.event)
	} else {
		batch.Degraded.Events++
		n.logger.Debug("event without id, kept only on the attendance row", "index", index)
	}
	if b.timeslot.ID != nil {
		batch.Timeslots.Insert(*b.timeslot.ID, b.timeslot)
	} else {
		batch.Degraded.Timeslots++
		n.logger.Debug("timeslot without id, kept only on the attendance row", "index", index)
	}
	if b.person.ID != nil {
		batch.Persons.Insert(*b.person.ID, b.person)
	} else {
		batch.Degraded.Persons++
		n.logger.Debug("person without id", "index", index)
	}
	batch.Attendances = append(batch.Attendances, b.attendance.WithDimensions(b.event, b.timeslot, b.person))
}
