package constants

// Portal paths that controllers redirect to or build links from.
const (
	LoginRoute    = "/login"
	DashboardPath = "/user/dashboard"
	PackagesPath  = "/user/packages"
	BillsPath     = "/user/bills"
	InvoicesRoute = "/user/invoices"
	AdminRoute    = "/admin"
)
