// Package reporter ranks each cycle's successful results and renders them for the operator.
package reporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/math"
)

// MaxTopN bounds how many results a report shows
const MaxTopN = 10

// DisplayDecimals is the number of fractional digits shown; extra digits are truncated
const DisplayDecimals = 8

// NoQuotesMessage is printed when a cycle produced no successful outcome
const NoQuotesMessage = "No successful quotes this cycle"

// Entry is one ranked row with display-ready amounts
type Entry struct {
	Rank      int    `json:"rank"`
	Route     string `json:"route"`
	TradeSize string `json:"trade_size"`
	Legs      string `json:"legs"`
	Profit    string `json:"profit"`
	Bps       string `json:"bps"`
	GasCost   string `json:"gas_cost"`
	FlashFee  string `json:"flash_fee"`
	NetProfit string `json:"net_profit"`
}

// Snapshot is the report of the most recent cycle
type Snapshot struct {
	Cycle     uint64    `json:"cycle"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  int       `json:"attempts"`
	Successes int       `json:"successes"`
	Entries   []Entry   `json:"entries"`
}

// Reporter renders ranked results as a console table
type Reporter struct {
	output   io.Writer
	topN     int
	decimals uint8
	symbol   string
	logger   *zap.Logger

	mu     sync.RWMutex
	latest Snapshot
	cycle  uint64
}

// NewReporter creates a reporter; amounts are shown in units of a token with
// the given symbol and decimals
func NewReporter(output io.Writer, topN int, symbol string, decimals uint8, logger *zap.Logger) *Reporter {
	if output == nil {
		output = os.Stdout
	}
	if topN <= 0 || topN > MaxTopN {
		topN = MaxTopN
	}
	return &Reporter{
		output:   output,
		topN:     topN,
		decimals: decimals,
		symbol:   symbol,
		logger:   logger,
	}
}

// Rank returns up to n results ordered by raw profit, highest first.
// Equal profits keep their batch order. The input is not modified.
func Rank(batch []types.ScoredResult, n int) []types.ScoredResult {
	ranked := make([]types.ScoredResult, 0, len(batch))
	for _, r := range batch {
		if r.Success && r.RawProfit != nil {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RawProfit.Cmp(ranked[j].RawProfit) > 0
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Report ranks batch, prints the table and keeps it as the latest snapshot.
// attempts is the number of route evaluations the cycle made.
func (r *Reporter) Report(batch []types.ScoredResult, attempts int) Snapshot {
	top := Rank(batch, r.topN)

	entries := make([]Entry, len(top))
	for i, res := range top {
		entries[i] = r.entry(i+1, res)
	}

	r.mu.Lock()
	r.cycle++
	snap := Snapshot{
		Cycle:     r.cycle,
		Timestamp: time.Now().UTC(),
		Attempts:  attempts,
		Successes: len(batch),
		Entries:   entries,
	}
	r.latest = snap
	r.mu.Unlock()

	r.render(snap)
	return snap
}

// Latest returns the most recent snapshot
func (r *Reporter) Latest() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.latest
	snap.Entries = append([]Entry(nil), r.latest.Entries...)
	return snap
}

func (r *Reporter) entry(rank int, res types.ScoredResult) Entry {
	return Entry{
		Rank:      rank,
		Route:     string(res.RouteType),
		TradeSize: res.TradeSize,
		Legs:      res.Legs,
		Profit:    math.FormatUnits(res.RawProfit, r.decimals, DisplayDecimals),
		Bps:       bpsString(res),
		GasCost:   math.FormatUnits(res.GasCost, r.decimals, DisplayDecimals),
		FlashFee:  math.FormatUnits(res.FlashFee, r.decimals, DisplayDecimals),
		NetProfit: math.FormatUnits(res.NetProfit, r.decimals, DisplayDecimals),
	}
}

func bpsString(res types.ScoredResult) string {
	if res.Bps == nil {
		return "N/A"
	}
	return res.Bps.String()
}

func (r *Reporter) render(snap Snapshot) {
	if len(snap.Entries) == 0 {
		fmt.Fprintln(r.output, NoQuotesMessage)
		return
	}

	fmt.Fprintf(r.output, "Cycle %d: top %d of %d successful quotes (%d attempted)\n",
		snap.Cycle, len(snap.Entries), snap.Successes, snap.Attempts)

	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{
		"#", "Route", "Size", "Legs",
		"Profit " + r.symbol, "Bps", "Gas " + r.symbol, "Flash fee " + r.symbol, "Net " + r.symbol,
	})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, e := range snap.Entries {
		table.Append([]string{
			strconv.Itoa(e.Rank), e.Route, e.TradeSize, e.Legs,
			e.Profit, e.Bps, e.GasCost, e.FlashFee, e.NetProfit,
		})
	}
	table.Render()

	if r.logger != nil {
		best := snap.Entries[0]
		r.logger.Info("Cycle report",
			zap.Uint64("cycle", snap.Cycle),
			zap.Int("successes", snap.Successes),
			zap.String("bestRoute", best.Route),
			zap.String("bestProfit", best.Profit),
			zap.String("bestBps", best.Bps))
	}
}
