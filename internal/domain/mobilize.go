package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AttendanceFetcher retrieves attendance records from the Mobilize API (or a test double).
type AttendanceFetcher interface {
	Fetch(ctx context.Context) (*FetchResult, error)
}

// FetchResult holds the decoded attendances and the original JSON for each
// record, as a single JSON array, for archiving.
type FetchResult struct {
	Attendances []RawAttendance
	Payload     json.RawMessage
}

// ID is a Mobilize identifier. The API sends numbers, a few payloads carry
// numeric strings, and null or 0 both mean the id is absent.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	v, _, err := parseJSONInt(b)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(v)
	return nil
}

// Valid reports whether the id is present.
func (id ID) Valid() bool { return id != 0 }

// Ptr returns the id as *int64, or nil when the id is absent.
func (id ID) Ptr() *int64 {
	if !id.Valid() {
		return nil
	}
	v := int64(id)
	return &v
}

// Timestamp is a Mobilize date-time in epoch seconds. Raw types hold it as
// *Timestamp so a null or missing date stays distinguishable from the epoch.
type Timestamp int64

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	v, ok, err := parseJSONInt(b)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	if !ok {
		return fmt.Errorf("invalid timestamp %s: empty string", b)
	}
	*ts = Timestamp(v)
	return nil
}

// Time returns the timestamp in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// DateTimeLayout is the warehouse date-time literal: UTC, no zone suffix.
const DateTimeLayout = "2006-01-02 15:04:05"

// FormatDateTime renders ts with DateTimeLayout.
func FormatDateTime(ts Timestamp) string {
	return ts.Time().Format(DateTimeLayout)
}

var errNotWhole = errors.New("not a whole number")

// parseJSONInt reads a JSON number or numeric string. ok is false for null
// and the empty string. Floats are accepted only when they hold a whole
// number that fits in int64.
func parseJSONInt(b []byte) (v int64, ok bool, err error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, false, nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, false, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false, errNotWhole
	}
	return int64(f), true, nil
}

// RawAttendance is one attendance as returned by GET /attendances.
type RawAttendance struct {
	ID                      ID              `json:"id"`
	Event                   *RawEvent       `json:"event"`
	Timeslot                *RawTimeslot    `json:"timeslot"`
	Person                  *RawPerson      `json:"person"`
	Sponsor                 *RawSponsor     `json:"sponsor"`
	Referrer                *RawReferrer    `json:"referrer"`
	CreatedDate             *Timestamp      `json:"created_date"`
	ModifiedDate            *Timestamp      `json:"modified_date"`
	Rating                  *string         `json:"rating"`
	Status                  *string         `json:"status"`
	Attended                *bool           `json:"attended"`
	CustomSignupFieldValues json.RawMessage `json:"custom_signup_field_values"`
}

// RawEvent is the event nested in an attendance. When the caller lacks
// permission on the event, the API sends only event_type and is_virtual.
type RawEvent struct {
	ID                     ID                `json:"id"`
	CreatedDate            *Timestamp        `json:"created_date"`
	ModifiedDate           *Timestamp        `json:"modified_date"`
	Title                  *string           `json:"title"`
	Description            *string           `json:"description"`
	EventType              *string           `json:"event_type"`
	Visibility             *string           `json:"visibility"`
	Timezone               *string           `json:"timezone"`
	FeaturedImageURL       *string           `json:"featured_image_url"`
	BrowserURL             *string           `json:"browser_url"`
	HighPriority           *bool             `json:"high_priority"`
	IsVirtual              *bool             `json:"is_virtual"`
	AddressVisibility      *string           `json:"address_visibility"`
	CreatedByVolunteerHost *bool             `json:"created_by_volunteer_host"`
	VirtualActionURL       *string           `json:"virtual_action_url"`
	AccessibilityStatus    *string           `json:"accessibility_status"`
	AccessibilityNotes     *string           `json:"accessibility_notes"`
	ApprovalStatus         *string           `json:"approval_status"`
	Instructions           *string           `json:"instructions"`
	Sponsor                *RawSponsor       `json:"sponsor"`
	Location               *RawLocation      `json:"location"`
	Contact                *RawContact       `json:"contact"`
	EventCampaign          *RawEventCampaign `json:"event_campaign"`
}

// RawSponsor is an organization: the event's owner, or the promoter an
// attendance was recorded through. HasID records whether the payload carried
// an "id" key at all, null included.
type RawSponsor struct {
	ID      ID      `json:"id"`
	HasID   bool    `json:"-"`
	Slug    *string `json:"slug"`
	Name    *string `json:"name"`
	OrgType *string `json:"org_type"`
}

func (s *RawSponsor) UnmarshalJSON(b []byte) error {
	type plain RawSponsor
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	_, v.HasID = keys["id"]
	*s = RawSponsor(v)
	return nil
}

type RawLocation struct {
	Venue                 *string  `json:"venue"`
	AddressLines          []string `json:"address_lines"`
	Locality              *string  `json:"locality"`
	Region                *string  `json:"region"`
	Country               *string  `json:"country"`
	PostalCode            *string  `json:"postal_code"`
	Location              *RawGeo  `json:"location"`
	CongressionalDistrict *string  `json:"congressional_district"`
	StateLegDistrict      *string  `json:"state_leg_district"`
	StateSenateDistrict   *string  `json:"state_senate_district"`
}

type RawGeo struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type RawContact struct {
	Name         *string `json:"name"`
	EmailAddress *string `json:"email_address"`
	PhoneNumber  *string `json:"phone_number"`
}

type RawEventCampaign struct {
	Slug               *string `json:"slug"`
	EventCreatePageURL *string `json:"event_create_page_url"`
}

type RawTimeslot struct {
	ID           ID        `json:"id"`
	StartDate    *Timestamp `json:"start_date"`
	EndDate      *Timestamp `json:"end_date"`
	IsFull       *bool      `json:"is_full"`
	Instructions *string    `json:"instructions"`
}

// RawPerson is the volunteer who signed up. The three contact arrays hold
// exactly one element in every payload observed so far.
type RawPerson struct {
	ID              ID                 `json:"id"`
	CreatedDate     *Timestamp         `json:"created_date"`
	ModifiedDate    *Timestamp         `json:"modified_date"`
	BlockedDate     *Timestamp         `json:"blocked_date"`
	GivenName       *string            `json:"given_name"`
	FamilyName      *string            `json:"family_name"`
	SMSOptInStatus  *string            `json:"sms_opt_in_status"`
	EmailAddresses  []RawEmailAddress  `json:"email_addresses"`
	PhoneNumbers    []RawPhoneNumber   `json:"phone_numbers"`
	PostalAddresses []RawPostalAddress `json:"postal_addresses"`
}

type RawEmailAddress struct {
	Primary *bool   `json:"primary"`
	Address *string `json:"address"`
}

type RawPhoneNumber struct {
	Primary *bool   `json:"primary"`
	Number  *string `json:"number"`
}

type RawPostalAddress struct {
	Primary    *bool   `json:"primary"`
	PostalCode *string `json:"postal_code"`
}

// RawReferrer carries the UTM parameters of the signup link.
type RawReferrer struct {
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	URL         *string `json:"url"`
}
