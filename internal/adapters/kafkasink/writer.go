package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"mobilizewarehouse/internal/tabular"
)

const (
	defaultBatchSize = 500
	publishTimeout   = 30 * time.Second
)

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// RowMessage is the value of every published message.
type RowMessage struct {
	Table string         `json:"table"`
	RunID string         `json:"run_id"`
	Row   map[string]any `json:"row"`
}

// Sink publishes one message per table row. The message key is
// "<table>:<id>" so updates to one entity land on one partition; rows without
// an id are published with no key.
type Sink struct {
	writer    MessageWriter
	batchSize int
	now       func() time.Time
}

// New returns a Sink writing through w in batches of batchSize messages
// (500 when batchSize <= 0).
func New(w MessageWriter, batchSize int) *Sink {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Sink{writer: w, batchSize: batchSize, now: time.Now}
}

func (s *Sink) Name() string { return "kafka" }

func (s *Sink) WriteTables(ctx context.Context, runID string, tables []*tabular.Table) error {
	at := s.now().UTC()
	batch := make([]kafka.Message, 0, s.batchSize)
	for _, t := range tables {
		idCol := columnIndex(t.Columns, "id")
		for i, row := range t.Rows {
			msg, err := buildMessage(t, runID, row, idCol, at)
			if err != nil {
				return fmt.Errorf("encode %s row %d: %w", t.Name, i, err)
			}
			batch = append(batch, msg)
			if len(batch) == s.batchSize {
				if err := s.flush(ctx, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		return s.flush(ctx, batch)
	}
	return nil
}

func (s *Sink) flush(ctx context.Context, batch []kafka.Message) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("publish %d messages: %w", len(batch), err)
	}
	return nil
}

func buildMessage(t *tabular.Table, runID string, row []any, idCol int, at time.Time) (kafka.Message, error) {
	values := tabular.DerefRow(row)
	rec := make(map[string]any, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = values[j]
	}
	payload, err := json.Marshal(RowMessage{Table: t.Name, RunID: runID, Row: rec})
	if err != nil {
		return kafka.Message{}, err
	}
	msg := kafka.Message{Value: payload, Time: at}
	if idCol >= 0 && values[idCol] != nil {
		msg.Key = []byte(t.Name + ":" + tabular.FormatValue(values[idCol]))
	}
	return msg, nil
}

func columnIndex(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
