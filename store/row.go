package store

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/michaelpento.lv/arbscan/types"
)

// MaxNoteLength caps the free-text note of a failure row, in characters
const MaxNoteLength = 200

// Header lists the row columns in persisted order
var Header = []string{
	"timestamp",
	"route",
	"trade_size",
	"legs",
	"input",
	"output",
	"raw_profit",
	"bps",
	"gas_cost",
	"flash_fee",
	"net_profit",
	"note",
}

// Sink appends rows to durable storage
type Sink interface {
	WriteRow(ctx context.Context, row Row) error
	Close() error
}

// Row is one route attempt. Monetary fields are base-10 integers in the
// base token's smallest unit; profit fields are empty for a failed attempt.
type Row struct {
	Timestamp string
	Route     string
	TradeSize string
	Legs      string
	Input     string
	Output    string
	RawProfit string
	Bps       string
	GasCost   string
	FlashFee  string
	NetProfit string
	Note      string
}

// NewRow renders a scored result for persistence
func NewRow(r types.ScoredResult) Row {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	row := Row{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Route:     string(r.RouteType),
		TradeSize: r.TradeSize,
		Legs:      r.Legs,
		Input:     intString(r.AmountIn),
		GasCost:   intString(r.GasCost),
		FlashFee:  intString(r.FlashFee),
	}

	if r.Success {
		row.Output = intString(r.AmountOut)
		row.RawProfit = intString(r.RawProfit)
		row.Bps = intString(r.Bps)
		row.NetProfit = intString(r.NetProfit)
	} else if r.Err != nil {
		row.Note = SanitizeNote(r.Err.Error())
	} else {
		row.Note = "unknown failure"
	}

	return row
}

// Fields returns the row in Header order
func (r Row) Fields() []string {
	return []string{
		r.Timestamp,
		r.Route,
		r.TradeSize,
		r.Legs,
		r.Input,
		r.Output,
		r.RawProfit,
		r.Bps,
		r.GasCost,
		r.FlashFee,
		r.NetProfit,
		r.Note,
	}
}

// SanitizeNote strips field separators, quotes and line breaks from an error
// message and truncates it to MaxNoteLength characters
func SanitizeNote(msg string) string {
	replacer := strings.NewReplacer(
		"\r\n", " ",
		"\n", " ",
		"\r", " ",
		"\t", " ",
		",", ";",
		`"`, "'",
	)
	clean := strings.TrimSpace(replacer.Replace(msg))

	runes := []rune(clean)
	if len(runes) > MaxNoteLength {
		clean = string(runes[:MaxNoteLength])
	}
	return clean
}

func intString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// Open returns the sink for driver at path
func Open(driver, path string) (Sink, error) {
	switch driver {
	case "", "csv":
		return NewCSVSink(path)
	case "sqlite":
		return NewSQLiteSink(path)
	default:
		return nil, fmt.Errorf("unknown output driver %q", driver)
	}
}
