package models

// DeletedCustomerLabel is shown wherever a history record's customer no
// longer resolves.
const DeletedCustomerLabel = "削除済み"

// HistoryEntry pairs a history record with its resolved customer.
// Customer is nil when the reference dangles.
type HistoryEntry struct {
	Record   HistoryRecord `json:"record"`
	Customer *Customer     `json:"customer,omitempty"`
}

// CustomerName returns the resolved customer's name, or the deleted-customer
// placeholder when the reference dangles.
func (e HistoryEntry) CustomerName() string {
	if e.Customer == nil {
		return DeletedCustomerLabel
	}
	return e.Customer.Name
}

// Statistics is the dashboard summary block.
type Statistics struct {
	TotalCustomers  int `json:"total_customers"`
	ActiveCustomers int `json:"active_customers"`
	TotalHistory    int `json:"total_history"`
	MonthlyHistory  int `json:"monthly_history"`
	TodayCount      int `json:"today_count"`
}

// Dashboard bundles everything the dashboard view renders.
type Dashboard struct {
	Stats           Statistics     `json:"stats"`
	RecentCustomers []Customer     `json:"recent_customers"`
	RecentHistory   []HistoryEntry `json:"recent_history"`
}
