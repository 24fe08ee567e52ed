package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mobilizewarehouse/internal/domain"
)

type emailService struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	recipients []string
	logger     *slog.Logger
}

// NewEmailService returns a RunReporter that mails the "run_report" template
// to every recipient.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipients []string, logger *slog.Logger) domain.RunReporter {
	return &emailService{mailer: mailer, renderer: renderer, recipients: recipients, logger: logger}
}

// SendRunReport renders the run report and sends it to each recipient. A
// failed recipient does not stop the others.
func (s *emailService) SendRunReport(ctx context.Context, summary *domain.RunSummary) error {
	if summary == nil {
		return fmt.Errorf("run summary is nil")
	}
	if len(s.recipients) == 0 {
		return nil
	}
	data := &domain.RunReportEmailData{
		Summary:   summary,
		Succeeded: summary.Succeeded(),
		Duration:  summary.Duration().Round(time.Millisecond).String(),
	}
	for _, name := range []string{domain.TableEvents, domain.TablePersons, domain.TableTimeslots, domain.TableAttendances} {
		if n, ok := summary.Tables[name]; ok {
			data.Tables = append(data.Tables, domain.TableCount{Name: name, Rows: n})
		}
	}
	subject, htmlBody, textBody, err := s.renderer.Render("run_report", data)
	if err != nil {
		return fmt.Errorf("failed to render run_report template: %w", err)
	}

	var errs []error
	for _, to := range s.recipients {
		if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
			errs = append(errs, fmt.Errorf("failed to send run report to %s: %w", to, err))
			continue
		}
		s.logger.Info("run report sent", "to", to, "run_id", summary.RunID)
	}
	return errors.Join(errs...)
}
