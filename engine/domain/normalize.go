package domain

import "strings"

// productCategories is the fixed raw-product mapping table. Raw labels are
// matched case-sensitively, exactly as they appear in the source taxonomy.
var productCategories = map[string]Category{
	"Credit card":                 CategoryCreditCard,
	"Credit card or prepaid card": CategoryCreditCard,
	"Payday loan, title loan, or personal loan":          CategoryPersonalLoan,
	"Money transfer, virtual currency, or money service": CategoryMoneyTransfer,
	"Money transfers": CategoryMoneyTransfer,
}

// savingsUmbrellaProducts are products that cover both checking and savings
// accounts. They map to CategorySavingsAccount only when the sub-product
// names a savings account; checking-labeled records under these products are
// dropped rather than reclassified.
var savingsUmbrellaProducts = map[string]bool{
	"Checking or savings account": true,
	"Bank account or service":     true,
}

// DropReason says why a record was excluded by normalization.
type DropReason string

const (
	DropNone               DropReason = ""
	DropUnmappedProduct    DropReason = "unmapped_product"
	DropNonSavingsUmbrella DropReason = "non_savings_sub_product"
	DropEmptyNarrative     DropReason = "empty_narrative"
)

// Normalize maps a raw record onto the canonical taxonomy. The second return
// is false when the record cannot be unambiguously classified and must be
// excluded from all downstream stages.
func Normalize(rec ComplaintRecord) (Category, bool) {
	cat, reason := Classify(rec)
	return cat, reason == DropNone
}

// Classify is Normalize with the drop reason exposed, so ingestion can count
// exclusions per cause. Per-record data issues are counted, never raised.
func Classify(rec ComplaintRecord) (Category, DropReason) {
	if cat, ok := productCategories[rec.Product]; ok {
		return cat, DropNone
	}
	if savingsUmbrellaProducts[rec.Product] {
		if strings.Contains(strings.ToLower(rec.SubProduct), "savings") {
			return CategorySavingsAccount, DropNone
		}
		return "", DropNonSavingsUmbrella
	}
	return "", DropUnmappedProduct
}
