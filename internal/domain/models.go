package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Entry struct {
	Name   string
	Amount decimal.Decimal
	Rank   *int // advisory only, never used for ordering
	Game   string
}

type DayRecord struct {
	Date        CalendarDate
	Rows        []Entry
	LastUpdated *time.Time
}

// MonthDataset holds every day record published for one period key. Days are
// neither sorted nor contiguous.
type MonthDataset struct {
	Days []DayRecord
}

type RankedEntry struct {
	Entry
	Rank int
}

type CountdownState struct {
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Ended   bool `json:"ended"`
}

type Currency struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
}

type DisplayRow struct {
	Rank       int             `json:"rank"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	AmountText string          `json:"amount_text"`
	Game       string          `json:"game,omitempty"`
	Podium     string          `json:"podium,omitempty"` // "top1", "top2", "top3"
}

type DayMeta struct {
	Date          CalendarDate `json:"date"`
	RequestedDate CalendarDate `json:"requested_date"`
	LastUpdated   *time.Time   `json:"last_updated,omitempty"`
	Fallback      bool         `json:"fallback"`
}

type FetchRecord struct {
	ID        string    `json:"id"` // nanoid
	MonthKey  string    `json:"month_key"`
	Source    string    `json:"source"`
	Status    string    `json:"status"` // "ok" or "error"
	Days      int       `json:"days"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

const (
	FetchStatusOK    = "ok"
	FetchStatusError = "error"
)
