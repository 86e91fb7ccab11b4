// Package audit delivers toggle audit entries to one or more sinks: the
// Postgres audit log, an AMQP topic exchange and an Elasticsearch index.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/metrics"
	"github.com/adminkit/toggle/internal/models"
)

// Sink receives audit entries.
type Sink interface {
	Name() string
	RecordAudit(ctx context.Context, entry models.AuditEntry) error
}

// Fanout writes every entry to all of its sinks. A failing sink is logged
// and counted; the remaining sinks still receive the entry.
type Fanout struct {
	sinks []Sink
	log   *logrus.Logger
}

// NewFanout creates a Fanout over the given sinks. Nil sinks are skipped.
func NewFanout(log *logrus.Logger, sinks ...Sink) *Fanout {
	f := &Fanout{log: log}

	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}

	return f
}

// Sinks returns the names of the configured sinks.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}

	return names
}

// RecordAudit assigns an event id when the entry has none and delivers it to
// every sink. The returned error joins all sink failures.
func (f *Fanout) RecordAudit(ctx context.Context, entry models.AuditEntry) error {
	if entry.EventID == "" {
		entry.EventID = uuid.NewString()
	}

	var errs []error

	for _, s := range f.sinks {
		if err := s.RecordAudit(ctx, entry); err != nil {
			metrics.AuditSinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			f.log.WithError(err).WithFields(logrus.Fields{
				"sink":        s.Name(),
				"event_id":    entry.EventID,
				"resource":    entry.Resource,
				"resource_id": entry.ResourceID,
			}).Warn("audit sink failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}

	return errors.Join(errs...)
}
