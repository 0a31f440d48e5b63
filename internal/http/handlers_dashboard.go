package http

import (
	"log/slog"
	"net/http"

	"driverlog/internal/core"
)

type seriesBar struct {
	Label  string
	Amount string
	Width  int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	year, month, key := parseMonthKey(r)

	records, err := s.records(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard error", "error", err, "year", year, "month", month)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error loading dashboard</div></section>`))
		return
	}

	total := core.MonthlyTotal(records, year, month)
	count := core.MonthlyRecordCount(records, year, month)
	series := core.RecentSeries(records, core.DefaultSeriesLength)

	var maxCents int64
	for _, p := range series {
		if p.Total.Cents > maxCents {
			maxCents = p.Total.Cents
		}
	}

	bars := make([]seriesBar, 0, len(series))
	for _, p := range series {
		width := 0
		if maxCents > 0 && p.Total.Cents > 0 {
			width = int((p.Total.Cents*100 + maxCents/2) / maxCents)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		bars = append(bars, seriesBar{
			Label:  p.Date.Format("02/01"),
			Amount: formatReais(p.Total.Cents),
			Width:  width,
		})
	}

	data := struct {
		MonthKey    string
		Total       string
		Parcels     int
		RecordCount int
		Average     string
		Bars        []seriesBar
	}{
		MonthKey:    key,
		Total:       formatReais(total.Cents),
		Parcels:     core.MonthlyParcelCount(records, year, month),
		RecordCount: count,
		Average:     formatReais(core.AveragePerDay(total, count).Cents),
		Bars:        bars,
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Total: ` + data.Total + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err, "template", "dashboard.html")
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error rendering dashboard</div></section>`))
	}
}

type historyItem struct {
	ID          string
	Date        string
	Mode        string
	Routes      string
	Tier        string
	Parcels     int
	Collections string
	Total       string
	PhotoKeys   []string
}

type historyGroup struct {
	Key      string
	Subtotal string
	Count    int
	Items    []historyItem
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	mode := parseModeFilter(r)
	month := parseHistoryMonth(r)

	records, err := s.records(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "History error", "error", err, "mode", string(mode), "month", month)
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Error loading history</div></section>`))
		return
	}

	groups := make([]historyGroup, 0)
	for _, g := range core.FilterAndGroup(records, mode, month) {
		group := historyGroup{
			Key:      g.Key,
			Subtotal: formatReais(g.Subtotal.Cents),
			Count:    g.Count,
		}
		for _, rec := range g.Records {
			item := historyItem{
				ID:        rec.Meta().ID,
				Date:      rec.Meta().Date.ISO(),
				Mode:      string(rec.Mode()),
				Routes:    routeDisplay(rec),
				Parcels:   rec.Parcels(),
				Total:     formatReais(rec.Meta().Total.Cents),
				PhotoKeys: rec.Meta().PhotoKeys,
			}
			switch v := rec.(type) {
			case core.StandardRecord:
				item.Collections = formatCount(v.CollectionCount)
			case core.DailyRateRecord:
				item.Collections = "-"
				item.Tier = v.TierLabel
			}
			group.Items = append(group.Items, item)
		}
		groups = append(groups, group)
	}

	data := struct {
		Mode   string
		Month  string
		Months []string
		Groups []historyGroup
	}{
		Mode:   string(mode),
		Month:  month,
		Months: core.DistinctMonths(records),
		Groups: groups,
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Templates not loaded</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "history.html", data); err != nil {
		slog.ErrorContext(r.Context(), "History template execution failed", "error", err, "template", "history.html")
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Error rendering history</div></section>`))
	}
}
