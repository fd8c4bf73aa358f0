package http

import (
	"net/http"
	"strconv"

	"currency-api/domain"
)

// rateEntry one row of the rates listing
type rateEntry struct {
	Code domain.CurrencyCode `json:"code"`
	Rate domain.Rate         `json:"rate"`
}

// listRates serves the latest rates, or the rate of one currency pair when from and to are given.
func (s *Server) listRates() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Has("from") || query.Has("to") {
			s.pairRate(rw, r)
			return
		}

		snapshot, err := s.Store.Latest(r.Context())
		if err != nil {
			s.fail(rw, r, err, "")
			return
		}

		entries := make([]rateEntry, 0, snapshot.Len())
		for _, code := range snapshot.Codes() {
			rate, _ := snapshot.Rate(code)
			entries = append(entries, rateEntry{Code: code, Rate: rate})
		}
		s.writeJSON(rw, http.StatusOK, entries)
	}
}

// pairRate writes the value of one unit of from in to as plain text.
func (s *Server) pairRate(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	verr := &domain.ValidationError{}

	from, err := domain.ParseCode(query.Get("from"))
	if err != nil {
		verr.Add("from", err.Error())
	}
	to, err := domain.ParseCode(query.Get("to"))
	if err != nil {
		verr.Add("to", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		s.fail(rw, r, err, "")
		return
	}

	rate, err := s.Service.Rate(r.Context(), from, to)
	if err != nil {
		s.fail(rw, r, err, "from")
		return
	}

	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = rw.Write([]byte(strconv.FormatFloat(float64(rate), 'f', -1, 64)))
}

// ingestRates accepts a snapshot pushed by a client.
func (s *Server) ingestRates() http.HandlerFunc {

	// request for unmarshalling snapshots posted by clients
	type request struct {
		Disclaimer string             `json:"disclaimer"`
		License    string             `json:"license"`
		Timestamp  int64              `json:"timestamp"`
		Base       string             `json:"base"`
		Rates      map[string]float64 `json:"rates"`
	}

	// response acknowledging an accepted snapshot
	type response struct {
		Timestamp int64               `json:"timestamp"`
		Base      domain.CurrencyCode `json:"base"`
		Accepted  int                 `json:"accepted"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req request
		if err := decode(rw, r, &req); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		snapshot, err := domain.SnapshotFromWire(req.Disclaimer, req.License, req.Timestamp, req.Base, req.Rates)
		if err != nil {
			s.fail(rw, r, err, "")
			return
		}

		if err := s.Store.Ingest(r.Context(), snapshot); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		s.writeJSON(rw, http.StatusAccepted, response{
			Timestamp: snapshot.Timestamp().Unix(),
			Base:      snapshot.Base(),
			Accepted:  snapshot.Len(),
		})
	}
}

// latestRates serves the whole latest snapshot.
func (s *Server) latestRates() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		snapshot, err := s.Store.Latest(r.Context())
		if err != nil {
			s.fail(rw, r, err, "")
			return
		}
		s.writeJSON(rw, http.StatusOK, snapshot)
	}
}

func (s *Server) listCurrencies() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		currencies, err := s.Store.Currencies(r.Context())
		if err != nil {
			s.fail(rw, r, err, "")
			return
		}
		if currencies == nil {
			currencies = []domain.CurrencyName{}
		}
		s.writeJSON(rw, http.StatusOK, currencies)
	}
}

// saveCurrencies upserts directory entries posted by a client.
func (s *Server) saveCurrencies() http.HandlerFunc {

	type entry struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req []entry
		if err := decode(rw, r, &req); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		verr := &domain.ValidationError{}
		currencies := make([]domain.CurrencyName, 0, len(req))
		for i, e := range req {
			code, err := domain.ParseCode(e.Code)
			if err != nil {
				verr.Add("["+strconv.Itoa(i)+"].code", err.Error())
				continue
			}
			currencies = append(currencies, domain.CurrencyName{Code: code, Name: e.Name})
		}
		if len(req) == 0 {
			verr.Add("body", "must contain at least one currency")
		}
		if err := verr.OrNil(); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		if err := s.Store.SaveCurrencies(r.Context(), currencies); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		s.writeJSON(rw, http.StatusAccepted, map[string]int{"accepted": len(currencies)})
	}
}
