package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fxconvert/internal/converter"
	"fxconvert/internal/currency"
	"fxconvert/internal/history"
	"fxconvert/internal/report"
)

type currencyResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type convertRequest struct {
	Amount       float64 `json:"amount"`
	FromCurrency string  `json:"from_currency" binding:"required,currency_code"`
	ToCurrency   string  `json:"to_currency" binding:"required,currency_code"`
}

type convertResponse struct {
	Success       bool       `json:"success"`
	Result        float64    `json:"result"`
	FormattedFrom string     `json:"formatted_from"`
	FormattedTo   string     `json:"formatted_to"`
	ExchangeRate  float64    `json:"exchange_rate"`
	Stale         bool       `json:"stale"`
	RatesAsOf     *time.Time `json:"rates_as_of"`
}

type formatQuery struct {
	Amount *float64 `form:"amount" binding:"required,finite"`
	Code   string   `form:"code" binding:"required"`
}

type historicalQuery struct {
	From string `form:"from" binding:"required,currency_code"`
	To   string `form:"to" binding:"required,currency_code"`
	Days *int   `form:"days"`
}

type pointResponse struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

type historicalResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Days      int             `json:"days"`
	Synthetic bool            `json:"synthetic"`
	Note      string          `json:"note"`
	Points    []pointResponse `json:"points"`
}

func (h *handler) listCurrencies(c *gin.Context) {
	list := h.opts.Registry.List()
	out := make([]currencyResponse, 0, len(list))
	for _, cur := range list {
		out = append(out, currencyResponse{
			Code:     cur.Code,
			Name:     cur.Name,
			Symbol:   cur.Symbol,
			Decimals: cur.Decimals,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.opts.Engine.Convert(ctx, req.Amount, req.FromCurrency, req.ToCurrency, h.opts.Now())
	if err != nil {
		h.recordOutcome(currency.Normalize(req.FromCurrency), currency.Normalize(req.ToCurrency), outcomeFor(err))
		h.writeError(c, err)
		return
	}

	outcome := "ok"
	if res.Stale {
		outcome = "stale"
	}
	h.recordOutcome(res.From, res.To, outcome)
	if h.opts.Recorder != nil {
		h.opts.Recorder.RecordConversion(ctx, res, "api")
	}

	resp := convertResponse{
		Success:       true,
		Result:        res.Converted,
		FormattedFrom: h.opts.Formatter.Format(res.Amount, res.From),
		FormattedTo:   h.opts.Formatter.Format(res.Converted, res.To),
		ExchangeRate:  converter.EffectiveRate(res.Amount, res.Converted),
		Stale:         res.Stale,
	}
	if !res.RatesAsOf.IsZero() {
		asOf := res.RatesAsOf.UTC()
		resp.RatesAsOf = &asOf
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) format(c *gin.Context) {
	var q formatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"formatted": h.opts.Formatter.Format(*q.Amount, q.Code)})
}

func (h *handler) historical(c *gin.Context) {
	q, points, ok := h.series(c)
	if !ok {
		return
	}

	out := make([]pointResponse, len(points))
	for i, p := range points {
		out[i] = pointResponse{Date: p.Date.Format(time.DateOnly), Rate: p.Rate}
	}
	c.JSON(http.StatusOK, historicalResponse{
		From:      q.From,
		To:        q.To,
		Days:      len(points),
		Synthetic: true,
		Note:      history.SyntheticNotice,
		Points:    out,
	})
}

func (h *handler) historicalChart(c *gin.Context) {
	q, points, ok := h.series(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	trend := report.Trend{From: q.From, To: q.To, Points: points}
	if err := report.WritePNG(&buf, trend, h.opts.ChartWidth, h.opts.ChartHeight); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("X-Synthetic-Data", "true")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// series binds the historical query and estimates the clamped series.
func (h *handler) series(c *gin.Context) (historicalQuery, []history.Point, bool) {
	var q historicalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return q, nil, false
	}
	q.From = currency.Normalize(q.From)
	q.To = currency.Normalize(q.To)

	days := h.opts.DefaultDays
	if q.Days != nil {
		days = *q.Days
	}
	days = history.ClampDays(days)

	points, err := h.opts.Estimator.Estimate(c.Request.Context(), q.From, q.To, days, h.opts.Now())
	if err != nil {
		h.writeError(c, err)
		return q, nil, false
	}
	return q, points, true
}

func (h *handler) recordOutcome(from, to, outcome string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.RecordConversion(from, to, outcome)
	}
}

func (h *handler) badRequest(c *gin.Context, err error) {
	logger := loggerFrom(c, h.logger)
	logger.Debug().Err(err).Msg("invalid request")
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": err.Error()})
}

func (h *handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	logger := loggerFrom(c, h.logger)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": messageFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, converter.ErrInvalidAmount),
		errors.Is(err, converter.ErrAmountOutOfRange),
		errors.Is(err, converter.ErrUnsupportedCurrency),
		errors.Is(err, history.ErrInvalidDays):
		return http.StatusBadRequest
	case errors.Is(err, converter.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, converter.ErrRatesUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, converter.ErrInvalidAmount):
		return "Amount must be positive"
	case errors.Is(err, converter.ErrAmountOutOfRange):
		return "Amount is too large to convert"
	case errors.Is(err, converter.ErrUnsupportedCurrency),
		errors.Is(err, history.ErrInvalidDays),
		errors.Is(err, converter.ErrRateNotFound):
		return err.Error()
	case errors.Is(err, converter.ErrRatesUnavailable):
		return "Exchange rates are currently unavailable. Please try again later."
	default:
		return "An unexpected error occurred"
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, converter.ErrInvalidAmount),
		errors.Is(err, converter.ErrAmountOutOfRange):
		return "invalid_amount"
	case errors.Is(err, converter.ErrUnsupportedCurrency):
		return "unsupported"
	case errors.Is(err, converter.ErrRateNotFound):
		return "rate_not_found"
	case errors.Is(err, converter.ErrRatesUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
