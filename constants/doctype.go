package constants

// DocumentType labels what kind of financial document a file is.
type DocumentType string

// Stable values (store these exact strings in DB).
const (
	BankStatement    DocumentType = "bank_statement"
	SalesRegister    DocumentType = "sales_register"
	PurchaseRegister DocumentType = "purchase_register"
	Invoice          DocumentType = "invoice"
	Other            DocumentType = "other"
)

// ClassifiableTypes lists every type the classifier may vote for, in the
// priority order used to break scoring ties. "other" is the fallback and is
// never voted for directly.
var ClassifiableTypes = []DocumentType{
	BankStatement,
	SalesRegister,
	PurchaseRegister,
	Invoice,
}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case BankStatement, SalesRegister, PurchaseRegister, Invoice, Other:
		return true
	}
	return false
}
