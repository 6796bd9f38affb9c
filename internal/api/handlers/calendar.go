package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/pkg/logger"
)

// CalendarHandler answers trading calendar queries
type CalendarHandler struct {
	calendar *calendar.Calendar
	logger   *logger.Logger
	now      func() time.Time
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(cal *calendar.Calendar, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{calendar: cal, logger: log, now: time.Now}
}

// CalendarDay describes one date
type CalendarDay struct {
	Date           string `json:"date"`
	IsTradingDay   bool   `json:"is_trading_day"`
	IsHoliday      bool   `json:"is_holiday"`
	LastTradingDay string `json:"last_trading_day,omitempty"`
	NextTradingDay string `json:"next_trading_day,omitempty"`
	Session        string `json:"session,omitempty"` // today 조회 시에만
}

// GetDay returns calendar facts for a date ("today" is accepted)
// GET /api/calendar/{date}
func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]

	now := h.now()
	var day time.Time
	if raw == "today" {
		day = now
	} else {
		d, err := calendar.ParseTradeDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = d
	}

	loc := h.calendar.Location()
	resp := CalendarDay{
		Date:         calendar.FormatTradeDate(day.In(loc)),
		IsTradingDay: h.calendar.IsTradingDay(day),
		IsHoliday:    h.calendar.IsHoliday(day),
	}
	if last, err := h.calendar.LastTradingDay(day); err == nil {
		resp.LastTradingDay = calendar.FormatTradeDate(last)
	}
	if next, err := h.calendar.NextTradingDay(day); err == nil {
		resp.NextTradingDay = calendar.FormatTradeDate(next)
	}
	if raw == "today" {
		resp.Session = string(h.calendar.Session(now))
	}

	respondJSON(w, http.StatusOK, resp)
}
