// Package domain defines the core types, the product taxonomy, and the
// normalization rules for the complaint-insights pipeline. It acts as the
// validation gate at the ingestion entry point.
package domain

// Category is one of the four canonical complaint product classes.
type Category string

const (
	CategoryCreditCard     Category = "Credit Card"
	CategoryPersonalLoan   Category = "Personal Loan"
	CategoryMoneyTransfer  Category = "Money Transfer"
	CategorySavingsAccount Category = "Savings Account"
)

// Categories lists every canonical category in a fixed order.
var Categories = []Category{
	CategoryCreditCard,
	CategoryPersonalLoan,
	CategoryMoneyTransfer,
	CategorySavingsAccount,
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ComplaintRecord is one raw complaint row as read from the source CSV.
// Immutable once read.
type ComplaintRecord struct {
	ComplaintID  string `json:"complaint_id"`
	Product      string `json:"product"`
	SubProduct   string `json:"sub_product,omitempty"`
	Narrative    string `json:"narrative"`
	Company      string `json:"company"`
	State        string `json:"state"`
	DateReceived string `json:"date_received"`
}

// Complaint is a record that passed normalization: it carries exactly one
// canonical category and a non-empty cleaned narrative.
type Complaint struct {
	ComplaintRecord
	Category  Category
	Narrative string // cleaned, replaces the raw narrative downstream
}
