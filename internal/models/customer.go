package models

import (
	"time"
	"unicode"
)

// CustomerStatus tracks where a customer sits in the engagement lifecycle.
type CustomerStatus string

const (
	StatusActive   CustomerStatus = "active"
	StatusPending  CustomerStatus = "pending"
	StatusInactive CustomerStatus = "inactive"
)

// ValidCustomerStatuses is the set of all valid customer statuses.
var ValidCustomerStatuses = []CustomerStatus{
	StatusActive,
	StatusPending,
	StatusInactive,
}

// IsValid returns true if the status is recognized.
func (s CustomerStatus) IsValid() bool {
	for _, v := range ValidCustomerStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns the Japanese display label for the status.
func (s CustomerStatus) Label() string {
	switch s {
	case StatusActive:
		return "アクティブ"
	case StatusPending:
		return "保留中"
	case StatusInactive:
		return "非アクティブ"
	}
	return string(s)
}

// CustomerRank grades a customer's priority, S being the highest.
type CustomerRank string

const (
	RankS CustomerRank = "S"
	RankA CustomerRank = "A"
	RankB CustomerRank = "B"
	RankC CustomerRank = "C"
)

// ValidCustomerRanks is the set of all valid customer ranks.
var ValidCustomerRanks = []CustomerRank{RankS, RankA, RankB, RankC}

// IsValid returns true if the rank is recognized.
func (r CustomerRank) IsValid() bool {
	for _, v := range ValidCustomerRanks {
		if r == v {
			return true
		}
	}
	return false
}

// Customer is the core record of the ledger. ID and CreatedAt are assigned
// once at creation and never change afterwards; every field except ID, Status
// and Rank is free text, and only Name is required.
type Customer struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	NameKana    string         `json:"nameKana,omitempty"`
	CompanyName string         `json:"companyName,omitempty"`
	Department  string         `json:"department,omitempty"`
	Position    string         `json:"position,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Mobile      string         `json:"mobile,omitempty"`
	Email       string         `json:"email,omitempty"`
	Address     string         `json:"address,omitempty"`
	Status      CustomerStatus `json:"status"`
	Rank        CustomerRank   `json:"rank"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Initials returns the first rune of the name uppercased, for avatar display.
// Returns "?" when the name is empty.
func Initials(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
