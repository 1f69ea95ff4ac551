// Package report renders batch runs: a JSON run summary, a per-contract
// prices CSV, and console tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/contactkeval/option-pricer/internal/batch"
	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

const (
	// Places is the number of decimal places reported for prices and Greeks.
	Places = 6

	SummaryFile = "summary.json"
	PricesFile  = "prices.csv"
)

// NewRunID returns a fresh identifier for a batch run.
func NewRunID() string {
	return uuid.NewString()
}

// round converts v for reporting. NaN and ±Inf have no decimal form and are
// reported as 0.
func round(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(Places)
}

//
// ==========================
// Report model
// ==========================
//

type GreekRow struct {
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Vega  decimal.Decimal `json:"vega"`
	Theta decimal.Decimal `json:"theta"`
	Rho   decimal.Decimal `json:"rho"`
}

// Row is one priced contract.
type Row struct {
	Index             int             `json:"index"`
	Side              string          `json:"side"`
	Strike            decimal.Decimal `json:"strike"`
	ImpliedVolatility decimal.Decimal `json:"implied_volatility"`
	TimeToExpiry      decimal.Decimal `json:"time_to_expiry"`
	Price             decimal.Decimal `json:"price"`
	Greeks            *GreekRow       `json:"greeks,omitempty"`
}

type SideReport struct {
	Count      int             `json:"count"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Mean       decimal.Decimal `json:"mean"`
	StdDev     decimal.Decimal `json:"std_dev"`
	Violations int             `json:"bound_violations"`
}

func newSideReport(s batch.SideStats) SideReport {
	return SideReport{
		Count:      s.Count,
		Min:        round(s.Min),
		Max:        round(s.Max),
		Mean:       round(s.Mean),
		StdDev:     round(s.StdDev),
		Violations: s.Violations,
	}
}

// RunReport is the JSON document written to summary.json.
type RunReport struct {
	RunID      string              `json:"run_id"`
	Underlying models.Underlying   `json:"underlying"`
	Market     models.MarketParams `json:"market"`
	Contracts  int                 `json:"contracts"`
	Degenerate int                 `json:"degenerate"`
	Workers    int                 `json:"workers"`
	Chunks     int                 `json:"chunks"`
	Greeks     bool                `json:"greeks"`
	Elapsed    string              `json:"elapsed"`
	Calls      SideReport          `json:"calls"`
	Puts       SideReport          `json:"puts"`
	Preview    []Row               `json:"preview"`
}

// NewRunReport assembles the report of one Run.
//
// Parameters:
//   - runID: identifier echoed in logs
//   - underlying, market: inputs the batch was priced with
//   - contracts: the priced batch
//   - res: output of batch.Run on contracts
//   - sum: output of batch.Summarize on res
//   - previewRows: leading contracts copied into Preview, negative means all
func NewRunReport(
	runID string,
	underlying models.Underlying,
	market models.MarketParams,
	contracts *models.OptionBatch,
	res *batch.Result,
	sum *batch.Summary,
	previewRows int,
) *RunReport {

	return &RunReport{
		RunID:      runID,
		Underlying: underlying,
		Market:     market,
		Contracts:  contracts.Len(),
		Degenerate: sum.Degenerate,
		Workers:    res.Workers,
		Chunks:     res.Chunks,
		Greeks:     res.Greeks != nil,
		Elapsed:    res.Elapsed.String(),
		Calls:      newSideReport(sum.Calls),
		Puts:       newSideReport(sum.Puts),
		Preview:    Rows(contracts, res, previewRows),
	}
}

// Rows converts the first limit contracts of res into report rows. A negative
// limit, or one past the end, converts every contract.
func Rows(contracts *models.OptionBatch, res *batch.Result, limit int) []Row {
	n := min(contracts.Len(), len(res.Prices))
	if limit >= 0 && limit < n {
		n = limit
	}

	rows := make([]Row, n)
	for i := range rows {
		rows[i] = newRow(contracts, res, i)
	}
	return rows
}

func newRow(contracts *models.OptionBatch, res *batch.Result, i int) Row {
	row := Row{
		Index:             i,
		Side:              contracts.Side[i].String(),
		Strike:            round(contracts.Strike[i]),
		ImpliedVolatility: round(contracts.ImpliedVolatility[i]),
		TimeToExpiry:      round(contracts.TimeToExpiry[i]),
		Price:             round(res.Prices[i]),
	}
	if g := res.Greeks; g != nil {
		row.Greeks = &GreekRow{
			Delta: round(g.Delta[i]),
			Gamma: round(g.Gamma[i]),
			Vega:  round(g.Vega[i]),
			Theta: round(g.Theta[i]),
			Rho:   round(g.Rho[i]),
		}
	}
	return row
}

//
// ==========================
// Files
// ==========================
//

// WriteJSON writes rep to dir/summary.json, creating dir when needed.
func WriteJSON(rep *RunReport, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SummaryFile), b, 0644)
}

// priceRow is the CSV projection of Row. Greek columns are empty when the run
// did not compute Greeks.
type priceRow struct {
	Index             int    `csv:"index"`
	Side              string `csv:"side"`
	Strike            string `csv:"strike"`
	ImpliedVolatility string `csv:"implied_volatility"`
	TimeToExpiry      string `csv:"time_to_expiry"`
	Price             string `csv:"price"`
	Delta             string `csv:"delta"`
	Gamma             string `csv:"gamma"`
	Vega              string `csv:"vega"`
	Theta             string `csv:"theta"`
	Rho               string `csv:"rho"`
}

func newPriceRow(r Row) *priceRow {
	out := &priceRow{
		Index:             r.Index,
		Side:              r.Side,
		Strike:            r.Strike.String(),
		ImpliedVolatility: r.ImpliedVolatility.String(),
		TimeToExpiry:      r.TimeToExpiry.String(),
		Price:             r.Price.String(),
	}
	if g := r.Greeks; g != nil {
		out.Delta = g.Delta.String()
		out.Gamma = g.Gamma.String()
		out.Vega = g.Vega.String()
		out.Theta = g.Theta.String()
		out.Rho = g.Rho.String()
	}
	return out
}

func createPricesFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return os.Create(filepath.Join(dir, PricesFile))
}

// WriteCSV writes rows to dir/prices.csv, creating dir when needed.
func WriteCSV(rows []Row, dir string) error {
	out := make([]*priceRow, len(rows))
	for i, r := range rows {
		out[i] = newPriceRow(r)
	}

	f, err := createPricesFile(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&out, f); err != nil {
		return fmt.Errorf("write prices: %w", err)
	}
	return f.Close()
}

// StreamCSV writes every contract of res to dir/prices.csv one row at a time,
// so memory use does not grow with the batch. The file matches WriteCSV's.
func StreamCSV(contracts *models.OptionBatch, res *batch.Result, dir string) error {
	n := min(contracts.Len(), len(res.Prices))
	if n == 0 {
		return WriteCSV(nil, dir)
	}

	f, err := createPricesFile(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := make(chan interface{}, 256)
	go func() {
		defer close(rows)
		for i := 0; i < n; i++ {
			rows <- newPriceRow(newRow(contracts, res, i))
		}
	}()

	err = gocsv.MarshalChan(rows, gocsv.DefaultCSVWriter(f))
	// unblock the producer if the writer stopped early
	for range rows {
	}
	if err != nil {
		return fmt.Errorf("write prices: %w", err)
	}
	return f.Close()
}

//
// ==========================
// Console
// ==========================
//

// RenderTable prints the run header, the preview rows and the per-side
// statistics.
func RenderTable(w io.Writer, rep *RunReport) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "Run %s: %d contracts (%d degenerate), %d workers, %d chunks, elapsed %s\n",
		rep.RunID, rep.Contracts, rep.Degenerate, rep.Workers, rep.Chunks, rep.Elapsed); err != nil {
		return err
	}

	if len(rep.Preview) > 0 {
		header := []string{"#", "Side", "Strike", "IV", "T", "Price"}
		if rep.Greeks {
			header = append(header, "Delta", "Gamma", "Vega", "Theta", "Rho")
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader(header)
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, r := range rep.Preview {
			line := []string{
				p.Sprintf("%d", r.Index),
				r.Side,
				r.Strike.String(),
				r.ImpliedVolatility.String(),
				r.TimeToExpiry.String(),
				r.Price.StringFixed(Places),
			}
			if g := r.Greeks; g != nil {
				line = append(line,
					g.Delta.StringFixed(Places),
					g.Gamma.StringFixed(Places),
					g.Vega.StringFixed(Places),
					g.Theta.StringFixed(Places),
					g.Rho.StringFixed(Places),
				)
			}
			table.Append(line)
		}
		table.Render()
	}

	stats := tablewriter.NewWriter(w)
	stats.SetHeader([]string{"Side", "Count", "Min", "Max", "Mean", "StdDev", "Violations"})
	stats.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range []struct {
		name string
		r    SideReport
	}{{"call", rep.Calls}, {"put", rep.Puts}} {
		stats.Append([]string{
			s.name,
			p.Sprintf("%d", s.r.Count),
			s.r.Min.StringFixed(Places),
			s.r.Max.StringFixed(Places),
			s.r.Mean.StringFixed(Places),
			s.r.StdDev.StringFixed(Places),
			p.Sprintf("%d", s.r.Violations),
		})
	}
	stats.Render()
	return nil
}

// RenderQuote prints the price and Greeks of a single contract.
func RenderQuote(w io.Writer, underlying models.Underlying, market models.MarketParams, o models.Option, q pricing.Quote) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	rows := [][]string{
		{"side", o.Side.String()},
		{"spot", p.Sprintf("%.4f", underlying.Spot)},
		{"strike", p.Sprintf("%.4f", o.Strike)},
		{"rate", p.Sprintf("%.4f", market.Rate)},
		{"volatility", p.Sprintf("%.4f", o.ImpliedVolatility)},
		{"time to expiry", p.Sprintf("%.4f", o.TimeToExpiry)},
		{"d1", round(q.D1).StringFixed(Places)},
		{"d2", round(q.D2).StringFixed(Places)},
		{"price", round(q.Price).StringFixed(Places)},
		{"delta", round(q.Delta).StringFixed(Places)},
		{"gamma", round(q.Gamma).StringFixed(Places)},
		{"vega", round(q.Vega).StringFixed(Places)},
		{"theta", round(q.Theta).StringFixed(Places)},
		{"rho", round(q.Rho).StringFixed(Places)},
	}
	table.AppendBulk(rows)
	table.Render()
}
