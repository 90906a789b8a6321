package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type monthPayload struct {
	Days []dayPayload `json:"days"`
}

type dayPayload struct {
	Date        string          `json:"date"`
	LastUpdated json.RawMessage `json:"last_updated"`
	Rows        []entryPayload  `json:"rows"`
}

type entryPayload struct {
	Name   json.RawMessage `json:"name"`
	Amount json.RawMessage `json:"amount"`
	Rank   json.RawMessage `json:"rank"`
	Game   json.RawMessage `json:"game"`
}

var lastUpdatedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DecodeMonth parses a winners document. Only the outer shape is strict; row
// fields that are missing or of an unexpected type fall back to zero values.
func DecodeMonth(body []byte) (*MonthDataset, error) {
	var payload monthPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode month payload: %w", err)
	}

	dataset := &MonthDataset{Days: make([]DayRecord, 0, len(payload.Days))}
	for _, d := range payload.Days {
		day := DayRecord{
			Date:        CalendarDate(strings.TrimSpace(d.Date)),
			LastUpdated: decodeTimestamp(d.LastUpdated),
			Rows:        make([]Entry, 0, len(d.Rows)),
		}
		for _, r := range d.Rows {
			day.Rows = append(day.Rows, Entry{
				Name:   decodeText(r.Name),
				Amount: decodeAmount(r.Amount),
				Rank:   decodeRank(r.Rank),
				Game:   decodeText(r.Game),
			})
		}
		dataset.Days = append(dataset.Days, day)
	}
	return dataset, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeAmount treats absent and non-numeric amounts as zero.
func decodeAmount(raw json.RawMessage) decimal.Decimal {
	if isNull(raw) {
		return decimal.Zero
	}
	text := strings.TrimSpace(decodeText(raw))
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decodeRank(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(decodeText(raw)))
	if err != nil {
		return nil
	}
	return &n
}

// decodeTimestamp accepts common ISO layouts or epoch milliseconds.
func decodeTimestamp(raw json.RawMessage) *time.Time {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range lastUpdatedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}
