package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"mobilizewarehouse/internal/domain"
)

// BuildEvent flattens a raw event. EventType and IsVirtual are always copied
// so they can be collapsed into the fact row. Every other column stays null
// unless the event has an id: the API omits the event body when the caller
// lacks permission on it. An event with an id must carry both dates.
func BuildEvent(raw *domain.RawEvent) (domain.Event, error) {
	event := domain.Event{
		EventType: domain.ClonePtr(raw.EventType),
		IsVirtual: domain.ClonePtr(raw.IsVirtual),
	}
	if !raw.ID.Valid() {
		return event, nil
	}

	created, err := requiredDate("event created_date", raw.CreatedDate)
	if err != nil {
		return domain.Event{}, err
	}
	modified, err := requiredDate("event modified_date", raw.ModifiedDate)
	if err != nil {
		return domain.Event{}, err
	}
	event.ID = raw.ID.Ptr()
	event.CreatedDate = &created
	event.ModifiedDate = &modified
	event.Title = domain.ClonePtr(raw.Title)
	event.Description = domain.ClonePtr(raw.Description)
	event.Visibility = domain.ClonePtr(raw.Visibility)
	event.Timezone = domain.ClonePtr(raw.Timezone)
	event.FeaturedImageURL = domain.ClonePtr(raw.FeaturedImageURL)
	event.BrowserURL = domain.ClonePtr(raw.BrowserURL)
	event.HighPriority = domain.ClonePtr(raw.HighPriority)
	event.AddressVisibility = domain.ClonePtr(raw.AddressVisibility)
	event.CreatedByVolunteerHost = domain.ClonePtr(raw.CreatedByVolunteerHost)
	event.VirtualActionURL = domain.ClonePtr(raw.VirtualActionURL)
	event.AccessibilityStatus = domain.ClonePtr(raw.AccessibilityStatus)
	event.AccessibilityNotes = domain.ClonePtr(raw.AccessibilityNotes)
	event.ApprovalStatus = domain.ClonePtr(raw.ApprovalStatus)
	event.Instructions = domain.ClonePtr(raw.Instructions)

	if s := raw.Sponsor; s != nil {
		event.SponsorID = s.ID.Ptr()
		event.SponsorSlug = domain.ClonePtr(s.Slug)
		event.SponsorName = domain.ClonePtr(s.Name)
		event.SponsorType = domain.ClonePtr(s.OrgType)
	}

	if loc := raw.Location; loc != nil {
		event.Venue = domain.ClonePtr(loc.Venue)
		event.Address = firstNonEmpty(loc.AddressLines)
		event.Locality = domain.ClonePtr(loc.Locality)
		event.Region = domain.ClonePtr(loc.Region)
		event.Country = domain.ClonePtr(loc.Country)
		event.PostalCode = domain.ClonePtr(loc.PostalCode)
		event.CongressionalDistrict = domain.ClonePtr(loc.CongressionalDistrict)
		event.StateLegDistrict = domain.ClonePtr(loc.StateLegDistrict)
		event.StateSenateDistrict = domain.ClonePtr(loc.StateSenateDistrict)
		if geo := loc.Location; geo != nil {
			event.Latitude = domain.ClonePtr(geo.Latitude)
			event.Longitude = domain.ClonePtr(geo.Longitude)
		}
	}

	if c := raw.Contact; c != nil {
		event.ContactName = domain.ClonePtr(c.Name)
		event.ContactEmail = domain.ClonePtr(c.EmailAddress)
		event.ContactPhone = domain.ClonePtr(c.PhoneNumber)
	}

	if ec := raw.EventCampaign; ec != nil {
		event.CampaignSlug = domain.ClonePtr(ec.Slug)
		event.EventCreatePageURL = domain.ClonePtr(ec.EventCreatePageURL)
	}

	return event, nil
}

// requiredDate formats a date the API always sends. Null or missing fails
// the record instead of loading the epoch.
func requiredDate(field string, ts *domain.Timestamp) (string, error) {
	if ts == nil {
		return "", fmt.Errorf("%s is missing: %w", field, domain.ErrMalformedRecord)
	}
	return domain.FormatDateTime(*ts), nil
}

// firstNonEmpty promotes the first non-blank address line. Observed payloads
// never carry more than one.
func firstNonEmpty(lines []string) *string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			v := l
			return &v
		}
	}
	return nil
}

// BuildTimeslot flattens a raw timeslot. Its columns do not depend on the id.
func BuildTimeslot(raw *domain.RawTimeslot) (domain.Timeslot, error) {
	start, err := requiredDate("timeslot start_date", raw.StartDate)
	if err != nil {
		return domain.Timeslot{}, err
	}
	end, err := requiredDate("timeslot end_date", raw.EndDate)
	if err != nil {
		return domain.Timeslot{}, err
	}
	return domain.Timeslot{
		ID:           raw.ID.Ptr(),
		StartDate:    start,
		EndDate:      end,
		IsFull:       domain.ClonePtr(raw.IsFull),
		Instructions: domain.ClonePtr(raw.Instructions),
	}, nil
}

// BuildPerson flattens a raw person, taking the first element of each contact
// array. Empty arrays violate the API schema and return ErrMalformedRecord.
func BuildPerson(raw *domain.RawPerson) (domain.Person, error) {
	if len(raw.EmailAddresses) == 0 {
		return domain.Person{}, fmt.Errorf("person has no email_addresses: %w", domain.ErrMalformedRecord)
	}
	if len(raw.PhoneNumbers) == 0 {
		return domain.Person{}, fmt.Errorf("person has no phone_numbers: %w", domain.ErrMalformedRecord)
	}
	if len(raw.PostalAddresses) == 0 {
		return domain.Person{}, fmt.Errorf("person has no postal_addresses: %w", domain.ErrMalformedRecord)
	}
	created, err := requiredDate("person created_date", raw.CreatedDate)
	if err != nil {
		return domain.Person{}, err
	}
	modified, err := requiredDate("person modified_date", raw.ModifiedDate)
	if err != nil {
		return domain.Person{}, err
	}

	person := domain.Person{
		ID:             raw.ID.Ptr(),
		CreatedDate:    created,
		ModifiedDate:   modified,
		GivenName:      domain.ClonePtr(raw.GivenName),
		FamilyName:     domain.ClonePtr(raw.FamilyName),
		SMSOptInStatus: domain.ClonePtr(raw.SMSOptInStatus),
		Email:          domain.ClonePtr(raw.EmailAddresses[0].Address),
		Phone:          domain.ClonePtr(raw.PhoneNumbers[0].Number),
		PostalCode:     domain.ClonePtr(raw.PostalAddresses[0].PostalCode),
	}
	if raw.BlockedDate != nil && *raw.BlockedDate != 0 {
		blocked := domain.FormatDateTime(*raw.BlockedDate)
		person.BlockedDate = &blocked
	}
	return person, nil
}

// BuildAttendance flattens a raw attendance. Foreign keys and collapsed
// dimension columns are left null; see domain.Attendance.WithDimensions.
//
// The promoter columns are filled only when the attendance and its event both
// carry a sponsor with an id key and the two ids differ. A null id counts as
// present, so a null event sponsor id next to a real one marks a promoter.
func BuildAttendance(raw *domain.RawAttendance) (domain.Attendance, error) {
	if raw.Referrer == nil {
		return domain.Attendance{}, fmt.Errorf("attendance has no referrer: %w", domain.ErrMalformedRecord)
	}
	created, err := requiredDate("attendance created_date", raw.CreatedDate)
	if err != nil {
		return domain.Attendance{}, err
	}
	modified, err := requiredDate("attendance modified_date", raw.ModifiedDate)
	if err != nil {
		return domain.Attendance{}, err
	}
	custom, err := canonicalJSON(raw.CustomSignupFieldValues)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("custom_signup_field_values: %w", err)
	}

	att := domain.Attendance{
		ID:                 raw.ID.Ptr(),
		CustomSignupFields: custom,
		CreatedDate:        created,
		ModifiedDate:       modified,
		Rating:             domain.ClonePtr(raw.Rating),
		Status:             domain.ClonePtr(raw.Status),
		Attended:           domain.ClonePtr(raw.Attended),
		ReferrerSource:     domain.ClonePtr(raw.Referrer.UTMSource),
		ReferrerMedium:     domain.ClonePtr(raw.Referrer.UTMMedium),
		ReferrerCampaign:   domain.ClonePtr(raw.Referrer.UTMCampaign),
		ReferrerTerm:       domain.ClonePtr(raw.Referrer.UTMTerm),
		ReferrerContent:    domain.ClonePtr(raw.Referrer.UTMContent),
		ReferrerURL:        domain.ClonePtr(raw.Referrer.URL),
	}

	if isPromoter(raw) {
		att.PromoterID = raw.Sponsor.ID.Ptr()
		att.PromoterSlug = domain.ClonePtr(raw.Sponsor.Slug)
		att.PromoterName = domain.ClonePtr(raw.Sponsor.Name)
		att.PromoterType = domain.ClonePtr(raw.Sponsor.OrgType)
	}
	return att, nil
}

func isPromoter(raw *domain.RawAttendance) bool {
	if raw.Sponsor == nil || !raw.Sponsor.HasID {
		return false
	}
	if raw.Event == nil || raw.Event.Sponsor == nil || !raw.Event.Sponsor.HasID {
		return false
	}
	return raw.Sponsor.ID != raw.Event.Sponsor.ID
}

// canonicalJSON re-encodes v compactly with sorted object keys. Numbers keep
// their literal text. An absent value encodes as null.
func canonicalJSON(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null", nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
