package service

import (
	"daily-leaderboard/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter renders amounts as "<symbol> 1,234.50".
type MoneyFormatter struct {
	currency domain.Currency
	printer  *message.Printer
}

func NewMoneyFormatter(currency domain.Currency) *MoneyFormatter {
	return &MoneyFormatter{
		currency: currency,
		printer:  message.NewPrinter(language.English),
	}
}

func (f *MoneyFormatter) Format(amount decimal.Decimal) string {
	v := amount.Round(2).InexactFloat64()
	return f.currency.Symbol + " " + f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
