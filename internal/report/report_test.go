package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pricer/internal/batch"
	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
	"github.com/contactkeval/option-pricer/internal/testutil"
)

var (
	syn    = models.Underlying{Symbol: "SYN", Spot: 100}
	market = models.MarketParams{Rate: 0.05, Volatility: 0.2}
)

// fixture is an ATM call, an ATM put and a zero-strike call, with the kernel
// outputs written out so the report does not depend on the pricer.
func fixture() (*models.OptionBatch, *batch.Result, *batch.Summary) {
	b := models.NewOptionBatch(3)
	b.Append(models.Option{Strike: 100, ImpliedVolatility: 0.2, TimeToExpiry: 1, Side: models.Call})
	b.Append(models.Option{Strike: 100, ImpliedVolatility: 0.2, TimeToExpiry: 1, Side: models.Put})
	b.Append(models.Option{Strike: 0, ImpliedVolatility: 0.2, TimeToExpiry: 1, Side: models.Call})

	res := &batch.Result{
		Prices: []float64{10.450575619322287, 5.5735180693936925, 0},
		Greeks: &batch.GreekColumns{
			Delta: []float64{0.636830590455137, 0, 0},
			Gamma: []float64{0.018762017345846895, 0.018762017345846895, 0},
			Vega:  []float64{37.52403469169379, 37.52403469169379, 0},
			Theta: []float64{-6.414027640478951, -1.65788051797538, 0},
			Rho:   []float64{53.232483426191415, -41.89045902387999, 0},
		},
		Elapsed: 1500 * time.Microsecond,
		Workers: 2,
		Chunks:  1,
	}

	sum := &batch.Summary{
		Total:      3,
		Degenerate: 1,
		Calls:      batch.SideStats{Count: 1, Min: 10.450575619322287, Max: 10.450575619322287, Mean: 10.450575619322287},
		Puts:       batch.SideStats{Count: 1, Min: 5.5735180693936925, Max: 5.5735180693936925, Mean: 5.5735180693936925},
	}
	return b, res, sum
}

func TestRunReportGolden(t *testing.T) {
	b, res, sum := fixture()
	rep := NewRunReport("test-run", syn, market, b, res, sum, -1)
	testutil.CompareWithGolden(t, "run_report", rep)
}

func TestRunReportPreviewLimit(t *testing.T) {
	b, res, sum := fixture()

	rep := NewRunReport("r", syn, market, b, res, sum, 1)
	require.Len(t, rep.Preview, 1)
	assert.Equal(t, "10.450576", rep.Preview[0].Price.String())

	rep = NewRunReport("r", syn, market, b, res, sum, 10)
	assert.Len(t, rep.Preview, 3)

	rep = NewRunReport("r", syn, market, b, res, sum, 0)
	assert.Empty(t, rep.Preview)
}

func TestRowsWithoutGreeks(t *testing.T) {
	b, res, _ := fixture()
	res.Greeks = nil

	rows := Rows(b, res, -1)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Nil(t, r.Greeks)
	}
	assert.Equal(t, "put", rows[1].Side)
	assert.Equal(t, "5.573518", rows[1].Price.String())
}

func TestWriteJSON(t *testing.T) {
	b, res, sum := fixture()
	rep := NewRunReport(NewRunID(), syn, market, b, res, sum, 2)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteJSON(rep, dir))

	raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)

	var got RunReport
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, rep.RunID, got.RunID)
	assert.True(t, rep.Calls.Mean.Equal(got.Calls.Mean))

	_, err = uuid.Parse(got.RunID)
	assert.NoError(t, err)
}

func TestWriteCSV(t *testing.T) {
	b, res, _ := fixture()
	dir := t.TempDir()
	require.NoError(t, WriteCSV(Rows(b, res, -1), dir))

	f, err := os.Open(filepath.Join(dir, PricesFile))
	require.NoError(t, err)
	defer f.Close()

	var rows []*priceRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, "call", rows[0].Side)
	assert.Equal(t, "10.450576", rows[0].Price)
	assert.Equal(t, "0.636831", rows[0].Delta)
	assert.Equal(t, "-1.657881", rows[1].Theta)
	assert.Equal(t, "0", rows[2].Price)
}

func TestRenderTable(t *testing.T) {
	b, res, sum := fixture()
	rep := NewRunReport("run-1", syn, market, b, res, sum, 2)
	rep.Contracts = 1_234_567

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "Run run-1: 1,234,567 contracts (1 degenerate), 2 workers, 1 chunks, elapsed 1.5ms")
	assert.Contains(t, out, "10.450576")
	assert.Contains(t, out, "-6.414028")
	assert.Contains(t, strings.ToUpper(out), "VIOLATIONS")
}

func TestRenderQuote(t *testing.T) {
	o := models.Option{Strike: 100, ImpliedVolatility: 0.2, TimeToExpiry: 1, Side: models.Call}
	q := pricing.EvaluateOption(o, syn, market)

	var buf bytes.Buffer
	RenderQuote(&buf, syn, market, o, q)

	out := buf.String()
	assert.Contains(t, out, "10.450576")
	assert.Contains(t, out, "0.636831")
	assert.Contains(t, out, "call")
}

func TestRowsNonFiniteValues(t *testing.T) {
	b, res, sum := fixture()
	res.Prices[1] = math.NaN()
	res.Greeks.Vega[0] = math.Inf(1)
	sum.Puts.Mean = math.NaN()
	sum.Puts.Max = math.Inf(-1)

	var rep *RunReport
	require.NotPanics(t, func() {
		rep = NewRunReport("r", syn, market, b, res, sum, -1)
	})
	assert.Equal(t, "0", rep.Preview[1].Price.String())
	assert.Equal(t, "0", rep.Preview[0].Greeks.Vega.String())
	assert.Equal(t, "0", rep.Puts.Mean.String())
	assert.Equal(t, "0", rep.Puts.Max.String())
}

func TestStreamCSVMatchesWriteCSV(t *testing.T) {
	b, res, _ := fixture()

	written, streamed := t.TempDir(), t.TempDir()
	require.NoError(t, WriteCSV(Rows(b, res, -1), written))
	require.NoError(t, StreamCSV(b, res, streamed))

	want, err := os.ReadFile(filepath.Join(written, PricesFile))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(streamed, PricesFile))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestStreamCSVEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, StreamCSV(models.NewOptionBatch(0), &batch.Result{}, dir))

	raw, err := os.ReadFile(filepath.Join(dir, PricesFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "index,side,strike"))
}
