// Package report writes a RunResult to disk in the three shapes operators
// consume: a full JSON dump, a flat fills CSV, and an equity-curve CSV.
// Consolidates the teacher's duplicate report/reports packages into one.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yukun-Git/stock-pal-sub000/internal/backtest"
)

// WriteJSON marshals res and writes it to <outdir>/run.json.
func WriteJSON(res *backtest.RunResult, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "run.json"), b, 0644)
}

// WriteCSV writes res's fills as a flat CSV to <outdir>/fills.csv, one row
// per executed trade.
func WriteCSV(res *backtest.RunResult, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "fills.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"date", "symbol", "side", "shares", "price", "gross_amount", "commission", "taxes", "net_cash_delta", "reason", "origin"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, fl := range res.Fills {
		row := []string{
			fl.Date.Format("2006-01-02"),
			fl.Symbol,
			fl.Side,
			fmt.Sprintf("%d", fl.Shares),
			fmt.Sprintf("%.4f", fl.Price),
			fmt.Sprintf("%.2f", fl.GrossAmount),
			fmt.Sprintf("%.2f", fl.Commission),
			fmt.Sprintf("%.2f", fl.Taxes),
			fmt.Sprintf("%.2f", fl.NetCashDelta),
			fl.Reason,
			fl.Origin,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCurveCSV writes res's per-bar equity samples to
// <outdir>/equity_curve.csv.
func WriteEquityCurveCSV(res *backtest.RunResult, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "equity_curve.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "equity", "cash", "position_value"}); err != nil {
		return err
	}
	for _, s := range res.EquityCurve {
		row := []string{
			s.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", s.Equity),
			fmt.Sprintf("%.2f", s.Cash),
			fmt.Sprintf("%.2f", s.PositionValue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
