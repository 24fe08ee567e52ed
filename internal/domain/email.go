package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RunReportEmailData holds data for the run report email.
type RunReportEmailData struct {
	Summary   *RunSummary
	Succeeded bool
	Duration  string
	Tables    []TableCount
}

// TableCount is one line of the report's table section.
type TableCount struct {
	Name string
	Rows int
}
