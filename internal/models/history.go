package models

import "time"

// InteractionType classifies how a customer interaction took place.
type InteractionType string

const (
	TypePhone   InteractionType = "phone"
	TypeEmail   InteractionType = "email"
	TypeVisit   InteractionType = "visit"
	TypeMeeting InteractionType = "meeting"
	TypeOther   InteractionType = "other"
)

// ValidInteractionTypes is the set of all valid interaction types.
var ValidInteractionTypes = []InteractionType{
	TypePhone,
	TypeEmail,
	TypeVisit,
	TypeMeeting,
	TypeOther,
}

// IsValid returns true if the interaction type is recognized.
func (t InteractionType) IsValid() bool {
	for _, v := range ValidInteractionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns the Japanese display label for the interaction type.
func (t InteractionType) Label() string {
	switch t {
	case TypePhone:
		return "電話"
	case TypeEmail:
		return "メール"
	case TypeVisit:
		return "訪問"
	case TypeMeeting:
		return "打ち合わせ"
	case TypeOther:
		return "その他"
	}
	return string(t)
}

// HistoryRecord is one logged interaction with a customer.
//
// CustomerID is a weak reference: it is stored as given and resolved lazily
// at read time. A record whose customer has been deleted out of band is
// surfaced with a deleted-customer placeholder, never an error. Date is the
// user-editable time of the interaction itself, distinct from CreatedAt which
// is stamped once when the record is first stored.
type HistoryRecord struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Date       time.Time       `json:"date"`
	Type       InteractionType `json:"type"`
	Subject    string          `json:"subject"`
	Content    string          `json:"content"`
	Result     string          `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
