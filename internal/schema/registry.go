package schema

import (
	"strings"

	"github.com/ledgerflow/ledgerflow/constants"
)

// LedgerRule describes one double-entry posting rule: when the canonical
// amount field is positive, post that amount as a debit against Debit and a
// matching credit against Credit.
type LedgerRule struct {
	AmountField string
	Debit       constants.Account
	Credit      constants.Account
}

// TypeSpec is the canonical per-document-type contract consulted by the
// normalizer and the journal generator: source-column mappings, per-field
// transforms, record validators and ledger rules all live here so no stage
// needs its own per-type branching.
type TypeSpec struct {
	// ColumnMappings maps lowercased source column names to canonical fields.
	ColumnMappings map[string]string
	// Transforms maps canonical fields to their coercion.
	Transforms map[string]Transform
	// Validators run in restrictive mapping mode; a failing record is
	// excluded from the batch and reported as an issue.
	Validators []Validator
	// DateField and DescField name the canonical columns the journal
	// generator reads the entry date and narration from.
	DateField string
	DescField string
	// LedgerRules are evaluated in order; the first rule whose amount field
	// is positive produces the debit/credit pair for a record.
	LedgerRules []LedgerRule
}

var registry = map[constants.DocumentType]TypeSpec{
	constants.BankStatement: {
		ColumnMappings: map[string]string{
			"date":             "transaction_date",
			"transaction date": "transaction_date",
			"txn date":         "transaction_date",
			"value date":       "transaction_date",
			"description":      "description",
			"narration":        "description",
			"particulars":      "description",
			"details":          "description",
			"debit":            "debit_amount",
			"debit amount":     "debit_amount",
			"withdrawal":       "debit_amount",
			"dr":               "debit_amount",
			"credit":           "credit_amount",
			"credit amount":    "credit_amount",
			"deposit":          "credit_amount",
			"cr":               "credit_amount",
			"balance":          "balance",
			"running balance":  "balance",
			"closing balance":  "balance",
			"reference":        "reference",
			"ref no":           "reference",
			"cheque no":        "reference",
		},
		Transforms: map[string]Transform{
			"transaction_date": ParseDate,
			"description":      TrimText,
			"debit_amount":     ParseCurrency,
			"credit_amount":    ParseCurrency,
			"balance":          ParseCurrency,
		},
		DateField: "transaction_date",
		DescField: "description",
		LedgerRules: []LedgerRule{
			{AmountField: "debit_amount", Debit: constants.AccountExpenses, Credit: constants.AccountBank},
			{AmountField: "credit_amount", Debit: constants.AccountBank, Credit: constants.AccountRevenue},
		},
	},
	constants.SalesRegister: {
		ColumnMappings: map[string]string{
			"customer":       "customer_name",
			"customer name":  "customer_name",
			"party":          "customer_name",
			"buyer":          "customer_name",
			"invoice":        "invoice_number",
			"invoice no":     "invoice_number",
			"invoice number": "invoice_number",
			"bill no":        "invoice_number",
			"date":           "invoice_date",
			"invoice date":   "invoice_date",
			"amount":         "total_amount",
			"total":          "total_amount",
			"total amount":   "total_amount",
			"grand total":    "total_amount",
			"invoice value":  "total_amount",
			"taxable value":  "taxable_amount",
			"taxable amount": "taxable_amount",
			"gst":            "gst_amount",
			"gst amount":     "gst_amount",
			"tax amount":     "gst_amount",
		},
		Transforms: map[string]Transform{
			"customer_name":  TrimText,
			"invoice_date":   ParseDate,
			"total_amount":   ParseCurrency,
			"taxable_amount": ParseCurrency,
			"gst_amount":     ParseCurrency,
		},
		Validators: []Validator{
			RequirePositive("total_amount"),
			RequireNonBlank("customer_name"),
		},
		DateField: "invoice_date",
		DescField: "customer_name",
		LedgerRules: []LedgerRule{
			{AmountField: "total_amount", Debit: constants.AccountReceivable, Credit: constants.AccountSalesRevenue},
		},
	},
	constants.PurchaseRegister: {
		ColumnMappings: map[string]string{
			"vendor":         "vendor_name",
			"vendor name":    "vendor_name",
			"supplier":       "vendor_name",
			"supplier name":  "vendor_name",
			"party":          "vendor_name",
			"invoice":        "invoice_number",
			"invoice no":     "invoice_number",
			"invoice number": "invoice_number",
			"bill no":        "invoice_number",
			"date":           "invoice_date",
			"invoice date":   "invoice_date",
			"amount":         "total_amount",
			"total":          "total_amount",
			"total amount":   "total_amount",
			"grand total":    "total_amount",
			"taxable value":  "taxable_amount",
			"taxable amount": "taxable_amount",
			"gst":            "gst_amount",
			"gst amount":     "gst_amount",
			"tax amount":     "gst_amount",
		},
		Transforms: map[string]Transform{
			"vendor_name":    TrimText,
			"invoice_date":   ParseDate,
			"total_amount":   ParseCurrency,
			"taxable_amount": ParseCurrency,
			"gst_amount":     ParseCurrency,
		},
		Validators: []Validator{
			RequirePositive("total_amount"),
			RequireNonBlank("vendor_name"),
		},
		DateField: "invoice_date",
		DescField: "vendor_name",
		LedgerRules: []LedgerRule{
			{AmountField: "total_amount", Debit: constants.AccountPurchases, Credit: constants.AccountPayable},
		},
	},
	constants.Invoice: {
		// Standalone invoices are normalized but not auto-posted; posting
		// policy for one-off invoices belongs to the AP/AR review flow.
		ColumnMappings: map[string]string{
			"party":          "party_name",
			"party name":     "party_name",
			"name":           "party_name",
			"invoice":        "invoice_number",
			"invoice no":     "invoice_number",
			"invoice number": "invoice_number",
			"date":           "invoice_date",
			"invoice date":   "invoice_date",
			"due date":       "due_date",
			"amount":         "total_amount",
			"total":          "total_amount",
			"total amount":   "total_amount",
			"tax":            "gst_amount",
			"gst":            "gst_amount",
		},
		Transforms: map[string]Transform{
			"party_name":   TrimText,
			"invoice_date": ParseDate,
			"due_date":     ParseDate,
			"total_amount": ParseCurrency,
			"gst_amount":   ParseCurrency,
		},
		DateField: "invoice_date",
		DescField: "party_name",
	},
}

// ForType returns the TypeSpec for t. ok is false for "other" and any
// unknown type; callers then pass records through untouched.
func ForType(t constants.DocumentType) (TypeSpec, bool) {
	spec, ok := registry[t]
	return spec, ok
}

// CanonicalField resolves a source column name for a document type,
// case-insensitively. Returns "" when no mapping exists.
func (s TypeSpec) CanonicalField(sourceColumn string) string {
	return s.ColumnMappings[strings.ToLower(strings.TrimSpace(sourceColumn))]
}

// HasLedgerRules reports whether documents of this type produce journal
// entries at all.
func (s TypeSpec) HasLedgerRules() bool {
	return len(s.LedgerRules) > 0
}
