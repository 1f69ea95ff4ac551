package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-pricer/internal/batch"
	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
	"github.com/contactkeval/option-pricer/internal/report"
)

var errNonFinite = errors.New("non-finite input")

//
// ==========================
// batch
// ==========================
//

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Price a generated or CSV-loaded batch and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger.SetVerbosity(cfg.Verbosity)

			_, err = runBatch(cmd.Context(), cfg, cmd.OutOrStdout())
			return err
		},
	}

	f := cmd.Flags()
	f.String("config", "", "YAML run file")
	f.String("input", "", "contracts CSV (strike,implied_volatility,time_to_expiry,side); generated when empty")
	f.Int("count", 0, "number of contracts to generate")
	f.Int64("seed", 0, "generator seed")
	f.Int("workers", 0, "concurrent chunks, 0 means GOMAXPROCS")
	f.Int("chunk-size", 0, "contracts per chunk")
	f.Bool("greeks", false, "also compute delta, gamma, vega, theta and rho")
	f.String("report-dir", "", "directory for summary.json and prices.csv")
	f.Int("preview", 0, "rows shown in the console table")
	f.Int("verbosity", 0, "0=error 1=info 2=debug 3=trace")
	return cmd
}

// loadConfig reads --config and applies the flags the user set on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	path, _ := f.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f.Changed("input") {
		cfg.Input, _ = f.GetString("input")
	}
	if f.Changed("count") {
		cfg.Generator.Count, _ = f.GetInt("count")
	}
	if f.Changed("seed") {
		cfg.Generator.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("chunk-size") {
		cfg.ChunkSize, _ = f.GetInt("chunk-size")
	}
	if f.Changed("greeks") {
		cfg.Greeks, _ = f.GetBool("greeks")
	}
	if f.Changed("report-dir") {
		cfg.ReportDir, _ = f.GetString("report-dir")
	}
	if f.Changed("preview") {
		cfg.PreviewRows, _ = f.GetInt("preview")
	}
	if f.Changed("verbosity") {
		cfg.Verbosity, _ = f.GetInt("verbosity")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runBatch loads or generates the contracts, prices them, prints the console
// report and writes the report files.
func runBatch(ctx context.Context, cfg *config.Config, out io.Writer) (*report.RunReport, error) {
	runID := report.NewRunID()
	log := logger.WithFields(logrus.Fields{"run_id": runID})

	contracts, source, err := loadContracts(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("event=batch_loaded n=%d source=%s underlying=%s spot=%v rate=%v",
		contracts.Len(), source, cfg.Underlying.Symbol, cfg.Underlying.Spot, cfg.Market.Rate)

	res, err := batch.Run(ctx, contracts, cfg.Underlying, cfg.Market, cfg.BatchOptions(runID))
	if err != nil {
		return nil, fmt.Errorf("pricing batch: %w", err)
	}

	rate := 0.0
	if secs := res.Elapsed.Seconds(); secs > 0 {
		rate = float64(contracts.Len()) / secs
	}
	log.Infof("event=batch_priced n=%d elapsed=%s contracts_per_sec=%.0f", contracts.Len(), res.Elapsed, rate)

	sum, err := batch.Summarize(contracts, cfg.Underlying, cfg.Market, res)
	if err != nil {
		return nil, err
	}
	if v := sum.Calls.Violations + sum.Puts.Violations; v > 0 {
		log.Warnf("event=bound_violations calls=%d puts=%d", sum.Calls.Violations, sum.Puts.Violations)
	}
	if sum.Degenerate > 0 {
		log.Infof("event=degenerate_contracts n=%d", sum.Degenerate)
	}

	rep := report.NewRunReport(runID, cfg.Underlying, cfg.Market, contracts, res, sum, cfg.PreviewRows)
	if err := report.RenderTable(out, rep); err != nil {
		return nil, err
	}
	if err := report.WriteJSON(rep, cfg.ReportDir); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	if err := report.StreamCSV(contracts, res, cfg.ReportDir); err != nil {
		return nil, fmt.Errorf("writing prices: %w", err)
	}
	log.Infof("event=report_written dir=%s", cfg.ReportDir)
	return rep, nil
}

func loadContracts(cfg *config.Config) (*models.OptionBatch, string, error) {
	if cfg.Input != "" {
		b, err := data.LoadBatchFile(cfg.Input)
		return b, cfg.Input, err
	}
	b, err := data.Generate(cfg.Generator, cfg.Underlying)
	return b, "generator", err
}

//
// ==========================
// quote
// ==========================
//

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price one contract and show its Greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			spot, _ := f.GetFloat64("spot")
			strike, _ := f.GetFloat64("strike")
			rate, _ := f.GetFloat64("rate")
			vol, _ := f.GetFloat64("vol")
			tte, _ := f.GetFloat64("tte")
			sideFlag, _ := f.GetString("side")
			asJSON, _ := f.GetBool("json")

			side, err := models.ParseOptionSide(sideFlag)
			if err != nil {
				return err
			}
			for name, v := range map[string]float64{"spot": spot, "strike": strike, "rate": rate, "vol": vol, "tte": tte} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: --%s is %v", errNonFinite, name, v)
				}
			}

			underlying := models.Underlying{Spot: spot}
			market := models.MarketParams{Rate: rate, Volatility: vol}
			o := models.Option{Strike: strike, ImpliedVolatility: vol, TimeToExpiry: tte, Side: side}

			if pricing.Degenerate(spot, strike, tte, vol) {
				logger.Warnf("event=degenerate_quote spot=%v strike=%v tte=%v vol=%v", spot, strike, tte, vol)
			}
			return writeQuote(cmd.OutOrStdout(), underlying, market, o, asJSON)
		},
	}

	f := cmd.Flags()
	f.Float64("spot", 100, "underlying spot price")
	f.Float64("strike", 100, "strike price")
	f.Float64("rate", 0.05, "continuously compounded risk-free rate")
	f.Float64("vol", 0.2, "implied volatility")
	f.Float64("tte", 1, "time to expiry in years")
	f.String("side", "call", "call or put")
	f.Bool("json", false, "print the quote as JSON")
	return cmd
}

func writeQuote(w io.Writer, underlying models.Underlying, market models.MarketParams, o models.Option, asJSON bool) error {
	q := pricing.EvaluateOption(o, underlying, market)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	}
	report.RenderQuote(w, underlying, market, o, q)
	return nil
}

//
// ==========================
// generate
// ==========================
//

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic contracts CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()

			path, _ := f.GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if f.Changed("count") {
				cfg.Generator.Count, _ = f.GetInt("count")
			}
			if f.Changed("seed") {
				cfg.Generator.Seed, _ = f.GetInt64("seed")
			}
			if f.Changed("spot") {
				cfg.Underlying.Spot, _ = f.GetFloat64("spot")
			}
			out, _ := f.GetString("out")

			return generate(cfg, out)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "YAML run file supplying the generator section")
	f.Int("count", 0, "number of contracts")
	f.Int64("seed", 0, "generator seed")
	f.Float64("spot", 0, "spot the strike expressions are evaluated against")
	f.String("out", "contracts.csv", "output CSV path")
	return cmd
}

func generate(cfg *config.Config, out string) error {
	b, err := data.Generate(cfg.Generator, cfg.Underlying)
	if err != nil {
		return err
	}
	if err := data.WriteBatchFile(out, b); err != nil {
		return err
	}
	logger.Infof("event=contracts_generated n=%d seed=%d out=%s", b.Len(), cfg.Generator.Seed, out)
	return nil
}
