package constants

// Account is one entry in the fixed chart of accounts the journal generator
// posts against.
type Account struct {
	Code string
	Name string
}

// Chart of accounts used by the ledger rules. Codes follow the usual
// 1xxx assets / 2xxx liabilities / 4xxx income / 5xxx expenses convention.
var (
	AccountBank         = Account{Code: "1001", Name: "Bank Account"}
	AccountReceivable   = Account{Code: "1200", Name: "Accounts Receivable"}
	AccountPayable      = Account{Code: "2100", Name: "Accounts Payable"}
	AccountRevenue      = Account{Code: "4000", Name: "Revenue"}
	AccountSalesRevenue = Account{Code: "4100", Name: "Sales Revenue"}
	AccountExpenses     = Account{Code: "5000", Name: "Expenses"}
	AccountPurchases    = Account{Code: "5100", Name: "Purchases"}
)
