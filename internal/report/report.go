// Package report exports a priced strategy and its payoff curve.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-picker/internal/chart"
	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/logger"
	"github.com/contactkeval/option-picker/internal/payoff"
	"github.com/contactkeval/option-picker/internal/strategy"
)

// Selection is the exported view of one strategy selection.
type Selection struct {
	Underlying     string              `json:"underlying"`
	Expiration     string              `json:"expiration"`
	AsOf           string              `json:"as_of,omitempty"`
	Strategy       strategy.Name       `json:"strategy"`
	CurrentPrice   float64             `json:"current_price"`
	TargetPrice    float64             `json:"target_price"`
	NetCost        float64             `json:"net_cost"`
	ProfitAtTarget float64             `json:"profit_at_target"`
	Legs           []payoff.Leg        `json:"legs"`
	Contracts      []strategy.Contract `json:"contracts"`
	Summary        payoff.Summary      `json:"summary"`
	Curve          []chart.Point       `json:"curve,omitempty"`
}

// NewSelection assembles the view of res. points > 0 samples the curve
// over chart.Bounds(current, target).
func NewSelection(m strategy.Market, current, target float64, res *strategy.Result, points int) Selection {
	sel := Selection{
		Underlying:     m.Underlying,
		Expiration:     formatDate(m.Expiration),
		AsOf:           formatDate(m.AsOf),
		Strategy:       res.Name,
		CurrentPrice:   current,
		TargetPrice:    target,
		NetCost:        res.NetCost,
		ProfitAtTarget: payoff.Round2(res.Payoff(target)),
		Legs:           res.Legs,
		Contracts:      res.Contracts,
		Summary:        payoff.Summarize(res.Legs),
	}
	if points > 0 {
		lo, hi := chart.Bounds(current, target)
		sel.Curve = chart.Sample(res.Payoff, lo, hi, points)
	}
	return sel
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(data.DateLayout)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// WriteCSV writes the curve as price,profit rows.
func WriteCSV(w io.Writer, curve []chart.Point) error {
	if len(curve) == 0 {
		_, err := io.WriteString(w, "price,profit\n")
		return err
	}
	return gocsv.Marshal(curve, w)
}

// WriteFiles writes selection.json and curve.csv into outdir.
func WriteFiles(outdir string, sel Selection) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return err
	}

	jf, err := os.Create(filepath.Join(outdir, "selection.json"))
	if err != nil {
		return err
	}
	defer jf.Close()
	if err := WriteJSON(jf, sel); err != nil {
		return fmt.Errorf("write selection.json: %w", err)
	}

	cf, err := os.Create(filepath.Join(outdir, "curve.csv"))
	if err != nil {
		return err
	}
	defer cf.Close()
	if err := WriteCSV(cf, sel.Curve); err != nil {
		return fmt.Errorf("write curve.csv: %w", err)
	}

	logger.Infof("report written dir=%s points=%d", outdir, len(sel.Curve))
	return nil
}
