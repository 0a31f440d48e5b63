package core

import (
	"strconv"
	"strings"
)

// ExportHeader is the fixed column schema of the delimited export.
var ExportHeader = []string{"Date", "Mode", "RouteIds", "ParcelCount", "CollectionCount", "TotalValue"}

// ToDelimitedText serializes records to comma-separated text: header row
// first, then one row per record in caller-supplied order (the formatter
// never re-sorts).
//
// RouteIds is always wrapped in double quotes; a daily-rate record joins its
// ids with " + ". CollectionCount renders "-" for daily-rate records, which
// have no collection concept. Beyond the fixed RouteIds quoting there is no
// escaping of embedded commas — a documented limitation, not a bug.
func ToDelimitedText(records []WorkRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(ExportHeader, ","))

	for _, r := range records {
		var routeIDs, collections string
		switch rec := r.(type) {
		case StandardRecord:
			routeIDs = rec.RouteID
			collections = strconv.Itoa(rec.CollectionCount)
		case DailyRateRecord:
			routeIDs = strings.Join(rec.RouteIDs, " + ")
			collections = "-"
		}

		meta := r.Meta()
		b.WriteByte('\n')
		b.WriteString(meta.Date.ISO())
		b.WriteByte(',')
		b.WriteString(string(r.Mode()))
		b.WriteString(`,"`)
		b.WriteString(routeIDs)
		b.WriteString(`",`)
		b.WriteString(strconv.Itoa(r.Parcels()))
		b.WriteByte(',')
		b.WriteString(collections)
		b.WriteByte(',')
		b.WriteString(meta.Total.Format())
	}
	return b.String()
}
