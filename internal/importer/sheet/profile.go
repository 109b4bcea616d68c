package sheet

// Profile describes the column layout of an expense sheet export format.
// Adding a new format is just adding a new Profile to the profiles slice.
type Profile struct {
	Name        string
	NameCol     string
	AmountCol   string
	CategoryCol string // optional, "" when the format has no category column
	DateCol     string // optional, "" when the format has no date column
	DateLayouts []string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.AmountCol}
}

// profiles is the ordered list of sheet formats to try during auto-detection.
// More specific profiles should come first to avoid false matches.
var profiles = []Profile{
	{
		Name:        "splitwise",
		NameCol:     "Description",
		AmountCol:   "Cost",
		CategoryCol: "Category",
		DateCol:     "Date",
		DateLayouts: []string{"2006-01-02", "02/01/2006"},
	},
	{
		Name:        "ledger",
		NameCol:     "Name",
		AmountCol:   "Amount",
		CategoryCol: "Category",
		DateCol:     "Date",
		DateLayouts: []string{"2006-01-02", "02-01-2006", "02/01/2006"},
	},
	{
		Name:      "simple",
		NameCol:   "Item",
		AmountCol: "Price",
	},
}
