package ledger

// DefaultRetailers is the reference data every new database is seeded with.
var DefaultRetailers = []Retailer{
	{Code: "BBY", Name: "Best Buy", RequiresPIN: true},
	{Code: "DDR", Name: "Doordash"},
	{Code: "LWS", Name: "Lowe's"},
	{Code: "HDP", Name: "Home Depot", RequiresPIN: true},
	{Code: "AMZ", Name: "Amazon"},
}
