package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ModeStandard  Mode = "NORMAL"
	ModeDailyRate Mode = "DAILY"
)

// MaxPhotosPerRecord caps the number of receipt photos attached to one record.
const MaxPhotosPerRecord = 3

type (
	// Mode discriminates the two pay variants of a work record.
	Mode string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RecordMeta holds the fields shared by both record variants.
	RecordMeta struct {
		ID        string
		Date      Date
		Total     Money
		PhotoKeys []string
		CreatedAt time.Time
	}

	// StandardRecord is a pay-per-item day: parcels and collections at
	// fixed unit rates on a single route.
	StandardRecord struct {
		RecordMeta
		RouteID         string
		ParcelCount     int
		CollectionCount int
	}

	// DailyRateRecord is a flat/tiered day keyed by how many route ids
	// were worked and, for two-route days, the combined parcel volume.
	DailyRateRecord struct {
		RecordMeta
		RouteIDs    []string
		ParcelCount int
		TierLabel   string
	}
)

// WorkRecord is the closed union over the two record variants. Consumers
// switch on the concrete type; the union cannot grow outside this package.
type WorkRecord interface {
	Meta() RecordMeta
	Mode() Mode
	// Parcels returns the parcel count of either variant.
	Parcels() int
	sealed()
}

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrMissingRouteID       = errors.New("missing route id")
	ErrMissingSecondRouteID = errors.New("missing second route id")
	ErrRouteIDCount         = errors.New("daily rate records take one or two route ids")
	ErrTooManyPhotos        = errors.New("too many photos (max 3)")
)

func (m RecordMeta) Meta() RecordMeta { return m }

func (StandardRecord) Mode() Mode  { return ModeStandard }
func (DailyRateRecord) Mode() Mode { return ModeDailyRate }

func (r StandardRecord) Parcels() int  { return r.ParcelCount }
func (r DailyRateRecord) Parcels() int { return r.ParcelCount }

func (StandardRecord) sealed()  {}
func (DailyRateRecord) sealed() {}

// RouteCount reports how many route ids the day covered. It is always a
// projection of len(RouteIDs); the count is never stored separately, so the
// two cannot drift apart across the storage boundary.
func (r DailyRateRecord) RouteCount() RouteCount {
	if len(r.RouteIDs) == 2 {
		return DoubleRoute
	}
	return SingleRoute
}

// NewStandardRecord validates and prices a pay-per-item entry. The total is
// always computed here; callers never supply one.
func NewStandardRecord(id string, date Date, routeID string, parcels, collections int, photoKeys []string, createdAt time.Time) (StandardRecord, error) {
	if err := date.Validate(); err != nil {
		return StandardRecord{}, err
	}
	routeID = CanonicalRouteID(routeID)
	if routeID == "" {
		return StandardRecord{}, ErrMissingRouteID
	}
	if len(photoKeys) > MaxPhotosPerRecord {
		return StandardRecord{}, ErrTooManyPhotos
	}
	parcels = clampCount(parcels)
	collections = clampCount(collections)

	return StandardRecord{
		RecordMeta: RecordMeta{
			ID:        id,
			Date:      date,
			Total:     ComputeStandard(parcels, collections),
			PhotoKeys: photoKeys,
			CreatedAt: createdAt,
		},
		RouteID:         routeID,
		ParcelCount:     parcels,
		CollectionCount: collections,
	}, nil
}

// NewDailyRateRecord validates and prices a flat-rate entry. The route count
// is derived from len(routeIDs); the tier label and total come from the
// pricing step function.
func NewDailyRateRecord(id string, date Date, routeIDs []string, parcels int, photoKeys []string, createdAt time.Time) (DailyRateRecord, error) {
	if err := date.Validate(); err != nil {
		return DailyRateRecord{}, err
	}
	if len(routeIDs) < 1 || len(routeIDs) > 2 {
		return DailyRateRecord{}, ErrRouteIDCount
	}
	canonical := make([]string, len(routeIDs))
	for i, rid := range routeIDs {
		canonical[i] = CanonicalRouteID(rid)
	}
	if canonical[0] == "" {
		return DailyRateRecord{}, ErrMissingRouteID
	}
	if len(canonical) == 2 && canonical[1] == "" {
		return DailyRateRecord{}, ErrMissingSecondRouteID
	}
	if len(photoKeys) > MaxPhotosPerRecord {
		return DailyRateRecord{}, ErrTooManyPhotos
	}
	parcels = clampCount(parcels)

	routes := SingleRoute
	if len(canonical) == 2 {
		routes = DoubleRoute
	}
	total, label := ComputeDailyRate(routes, parcels)

	return DailyRateRecord{
		RecordMeta: RecordMeta{
			ID:        id,
			Date:      date,
			Total:     total,
			PhotoKeys: photoKeys,
			CreatedAt: createdAt,
		},
		RouteIDs:    canonical,
		ParcelCount: parcels,
		TierLabel:   label,
	}, nil
}

// CanonicalRouteID trims and upper-cases a route identifier. Route identity
// is case-insensitive.
func CanonicalRouteID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in ISO form (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date in YYYY-MM-DD form. Ordering and grouping operate on
// this representation only, never on wall-clock time.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM grouping key.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// InMonth reports calendar-month membership (not a rolling window).
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}
