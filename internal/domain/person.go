package domain

import "mobilizewarehouse/internal/tabular"

// Person is one row of the persons dimension. Email, Phone and PostalCode come
// from the first element of the matching contact array.
type Person struct {
	ID             *int64
	CreatedDate    string
	ModifiedDate   string
	BlockedDate    *string
	GivenName      *string
	FamilyName     *string
	SMSOptInStatus *string
	Email          *string
	Phone          *string
	PostalCode     *string
}

func (p Person) Record() tabular.Record {
	return tabular.Record{
		"id":                p.ID,
		"created_date":      p.CreatedDate,
		"modified_date":     p.ModifiedDate,
		"blocked_date":      p.BlockedDate,
		"given_name":        p.GivenName,
		"family_name":       p.FamilyName,
		"sms_opt_in_status": p.SMSOptInStatus,
		"email":             p.Email,
		"phone":             p.Phone,
		"postal_code":       p.PostalCode,
	}
}
