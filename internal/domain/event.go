package domain

import "mobilizewarehouse/internal/tabular"

// Event is one row of the events dimension. Only EventType and IsVirtual are
// set for events the API returned without an id.
type Event struct {
	ID                     *int64
	CreatedDate            *string
	ModifiedDate           *string
	Title                  *string
	Description            *string
	EventType              *string
	Visibility             *string
	Timezone               *string
	FeaturedImageURL       *string
	BrowserURL             *string
	HighPriority           *bool
	IsVirtual              *bool
	AddressVisibility      *string
	CreatedByVolunteerHost *bool
	VirtualActionURL       *string
	AccessibilityStatus    *string
	AccessibilityNotes     *string
	ApprovalStatus         *string
	Instructions           *string

	SponsorID   *int64
	SponsorSlug *string
	SponsorName *string
	SponsorType *string

	Venue                 *string
	Address               *string
	Locality              *string
	Region                *string
	Country               *string
	PostalCode            *string
	Latitude              *float64
	Longitude             *float64
	CongressionalDistrict *string
	StateLegDistrict      *string
	StateSenateDistrict   *string

	ContactName  *string
	ContactEmail *string
	ContactPhone *string

	CampaignSlug       *string
	EventCreatePageURL *string
}

// Record flattens the event into its warehouse columns.
func (e Event) Record() tabular.Record {
	return tabular.Record{
		"id":                        e.ID,
		"created_date":              e.CreatedDate,
		"modified_date":             e.ModifiedDate,
		"title":                     e.Title,
		"description":               e.Description,
		"event_type":                e.EventType,
		"visibility":                e.Visibility,
		"timezone":                  e.Timezone,
		"featured_image_url":        e.FeaturedImageURL,
		"browser_url":               e.BrowserURL,
		"high_priority":             e.HighPriority,
		"is_virtual":                e.IsVirtual,
		"address_visibility":        e.AddressVisibility,
		"created_by_volunteer_host": e.CreatedByVolunteerHost,
		"virtual_action_url":        e.VirtualActionURL,
		"accessibility_status":      e.AccessibilityStatus,
		"accessibility_notes":       e.AccessibilityNotes,
		"approval_status":           e.ApprovalStatus,
		"instructions":              e.Instructions,
		"sponsor_id":                e.SponsorID,
		"sponsor_slug":              e.SponsorSlug,
		"sponsor_name":              e.SponsorName,
		"sponsor_type":              e.SponsorType,
		"venue":                     e.Venue,
		"address":                   e.Address,
		"locality":                  e.Locality,
		"region":                    e.Region,
		"country":                   e.Country,
		"postal_code":               e.PostalCode,
		"latitude":                  e.Latitude,
		"longitude":                 e.Longitude,
		"congressional_district":    e.CongressionalDistrict,
		"state_leg_district":        e.StateLegDistrict,
		"state_senate_district":     e.StateSenateDistrict,
		"contact_name":              e.ContactName,
		"contact_email":             e.ContactEmail,
		"contact_phone":             e.ContactPhone,
		"campaign_slug":             e.CampaignSlug,
		"event_create_page_url":     e.EventCreatePageURL,
	}
}
