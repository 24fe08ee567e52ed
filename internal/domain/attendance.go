package domain

import "mobilizewarehouse/internal/tabular"

// Attendance is one row of the attendances fact table. Rows are never
// deduplicated; two raw records with the same id give two rows.
type Attendance struct {
	ID *int64

	// Promoter is the attendance's own sponsor when it differs from the
	// event's sponsor.
	PromoterID   *int64
	PromoterSlug *string
	PromoterName *string
	PromoterType *string

	EventID    *int64
	TimeslotID *int64
	PersonID   *int64

	EventType      *string
	EventIsVirtual *bool
	TimeslotStart  *string
	TimeslotEnd    *string

	CustomSignupFields string
	CreatedDate        string
	ModifiedDate       string
	Rating             *string
	Status             *string
	Attended           *bool

	ReferrerSource   *string
	ReferrerMedium   *string
	ReferrerCampaign *string
	ReferrerTerm     *string
	ReferrerContent  *string
	ReferrerURL      *string
}

// WithDimensions returns a copy of a carrying the foreign keys of e, t and p
// and the event and timeslot columns collapsed into the fact row. The
// collapsed columns are copied even when the dimension has no id.
func (a Attendance) WithDimensions(e Event, t Timeslot, p Person) Attendance {
	out := a
	out.EventType = ClonePtr(e.EventType)
	out.EventIsVirtual = ClonePtr(e.IsVirtual)
	start, end := t.StartDate, t.EndDate
	out.TimeslotStart = &start
	out.TimeslotEnd = &end
	out.EventID = ClonePtr(e.ID)
	out.TimeslotID = ClonePtr(t.ID)
	out.PersonID = ClonePtr(p.ID)
	return out
}

func (a Attendance) Record() tabular.Record {
	return tabular.Record{
		"id":                   a.ID,
		"promoter_id":          a.PromoterID,
		"promoter_slug":        a.PromoterSlug,
		"promoter_name":        a.PromoterName,
		"promoter_type":        a.PromoterType,
		"event_id":             a.EventID,
		"timeslot_id":          a.TimeslotID,
		"person_id":            a.PersonID,
		"event_type":           a.EventType,
		"event_is_virtual":     a.EventIsVirtual,
		"timeslot_start":       a.TimeslotStart,
		"timeslot_end":         a.TimeslotEnd,
		"custom_signup_fields": a.CustomSignupFields,
		"created_date":         a.CreatedDate,
		"modified_date":        a.ModifiedDate,
		"rating":               a.Rating,
		"status":               a.Status,
		"attended":             a.Attended,
		"referrer_source":      a.ReferrerSource,
		"referrer_medium":      a.ReferrerMedium,
		"referrer_campaign":    a.ReferrerCampaign,
		"referrer_term":        a.ReferrerTerm,
		"referrer_content":     a.ReferrerContent,
		"referrer_url":         a.ReferrerURL,
	}
}

// ClonePtr returns a pointer to a copy of *p, or nil.
func ClonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
