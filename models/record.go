package models

import "strconv"

// ResultRecordHeader is the column order used for exported results.
var ResultRecordHeader = []string{
	"Address", "Suburb", "Found", "TenKWindowMode", "Price", "Min Price",
	"Max Price", "Bracket Width", "Queries Made", "Degraded Probes", "Error",
}

// ResultRecord is the flat, export-ready form of a DiscoveryResult.
type ResultRecord struct {
	Address    string
	Suburb     string
	Found      bool
	Exact      bool
	WindowMode bool
	MinPrice   int
	MaxPrice   int
	Width      int
	Calls      int
	Degraded   int
	Error      string
}

// Record flattens r. Price columns are left zero when nothing was found.
// WindowMode is whether a window was produced for found results and whether
// one was requested otherwise.
func (r *DiscoveryResult) Record() ResultRecord {
	rec := ResultRecord{
		Address:  r.Address,
		Suburb:   r.Suburb,
		Found:    r.Found,
		Exact:    r.Exact,
		Calls:    r.Calls,
		Degraded: r.Degraded,
	}
	if r.Found {
		rec.WindowMode = r.Exact
		rec.MinPrice = r.Bracket.MinPrice
		rec.MaxPrice = r.Bracket.MaxPrice
		rec.Width = r.Bracket.Width()
	} else {
		rec.WindowMode = r.RefineRequested
		rec.Error = r.Message
		if rec.Error == "" {
			rec.Error = "Not found"
		}
	}
	return rec
}

// Strings renders rec in ResultRecordHeader order. The sold price itself is
// never disclosed, so the Price column is always empty.
func (rec ResultRecord) Strings() []string {
	row := []string{
		rec.Address,
		rec.Suburb,
		strconv.FormatBool(rec.Found),
		strconv.FormatBool(rec.WindowMode),
		"",
		"", "", "",
		strconv.Itoa(rec.Calls),
		strconv.Itoa(rec.Degraded),
		rec.Error,
	}
	if rec.Found {
		row[5] = strconv.Itoa(rec.MinPrice)
		row[6] = strconv.Itoa(rec.MaxPrice)
		row[7] = strconv.Itoa(rec.Width)
	}
	return row
}
