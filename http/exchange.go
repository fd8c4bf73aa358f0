package http

import (
	"net/http"

	"currency-api/domain"
)

// convert produces HTTP handler for currency conversions
func (s *Server) convert() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		From struct {
			Code   string   `json:"code"`
			Amount *float64 `json:"amount"`
		} `json:"from"`
		To string `json:"to"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req request
		if err := decode(rw, r, &req); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		verr := &domain.ValidationError{}
		code, err := domain.ParseCode(req.From.Code)
		if err != nil {
			verr.Add("from.code", err.Error())
		}
		if req.From.Amount == nil {
			verr.Add("from.amount", "must be set")
		}
		to, err := domain.ParseCode(req.To)
		if err != nil {
			verr.Add("to", err.Error())
		}
		if err := verr.OrNil(); err != nil {
			s.fail(rw, r, err, "")
			return
		}

		from, err := domain.NewCurrency(code, *req.From.Amount)
		if err != nil {
			s.fail(rw, r, err, "from.amount")
			return
		}

		s.writeConversion(rw, r, from, to)
	}
}

// convertValue converts a value in the text form "<amount> <CODE>" given as a query parameter.
func (s *Server) convertValue() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		from, err := domain.ParseCurrency(query.Get("value"))
		if err != nil {
			s.fail(rw, r, err, "value")
			return
		}
		to, err := domain.ParseCode(query.Get("to"))
		if err != nil {
			s.fail(rw, r, err, "to")
			return
		}

		s.writeConversion(rw, r, from, to)
	}
}

func (s *Server) writeConversion(rw http.ResponseWriter, r *http.Request, from domain.Currency, to domain.CurrencyCode) {
	converted, err := s.Service.Convert(r.Context(), from, to)
	if err != nil {
		s.fail(rw, r, err, "from.amount")
		return
	}
	s.writeJSON(rw, http.StatusOK, converted)
}
