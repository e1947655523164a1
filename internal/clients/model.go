// Package clients manages client records and their phone numbers.
//
// A Store owns two tables: client (one row per person, unique email) and
// phone (many rows per client, unique number, cascading on client delete).
// Every mutating operation runs in a single transaction and either applies
// completely or not at all.
package clients

// Client is one row of the client table.
type Client struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name" validate:"required,max=80"`
	Surname string `json:"surname" yaml:"surname" validate:"required,max=80"`
	Email   string `json:"email" yaml:"email" validate:"required,max=320,email"`
}

// ClientRecord is a client together with its phone numbers in insertion order.
type ClientRecord struct {
	Client `yaml:",inline"`
	Phones []string `json:"phones" yaml:"phones" validate:"dive,phone_number"`
}

// ClientUpdate selects which fields UpdateClient overwrites.
// Nil pointers leave the stored value unchanged. A nil Phones slice leaves
// the phone list alone; a non-nil one (even empty) replaces it entirely.
type ClientUpdate struct {
	Name    *string  `json:"name,omitempty"`
	Surname *string  `json:"surname,omitempty"`
	Email   *string  `json:"email,omitempty"`
	Phones  []string `json:"phones,omitempty"`
}

// MatchMode selects how FindClient combines criteria.
type MatchMode int

const (
	// MatchAll requires every supplied criterion, phone included, to hold
	// for the same client in one joined query.
	MatchAll MatchMode = iota

	// MatchPhoneFallback matches on name/surname/email first and only
	// looks the phone number up when that found nothing.
	MatchPhoneFallback
)

func (m MatchMode) String() string {
	if m == MatchPhoneFallback {
		return "fallback"
	}
	return "all"
}

// ParseMatchMode accepts "all" or "fallback"; anything else is MatchAll.
func ParseMatchMode(s string) MatchMode {
	if s == "fallback" {
		return MatchPhoneFallback
	}
	return MatchAll
}

// Criteria for FindClient. Empty fields act as wildcards.
type Criteria struct {
	Name    string
	Surname string
	Email   string
	Phone   string
	Mode    MatchMode
}

func (c Criteria) hasClientFields() bool {
	return c.Name != "" || c.Surname != "" || c.Email != ""
}

func (c Criteria) empty() bool {
	return !c.hasClientFields() && c.Phone == ""
}
