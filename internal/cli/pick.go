package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-picker/internal/chart"
	"github.com/contactkeval/option-picker/internal/config"
	"github.com/contactkeval/option-picker/internal/payoff"
	"github.com/contactkeval/option-picker/internal/report"
	"github.com/contactkeval/option-picker/internal/strategy"
)

type pickOptions struct {
	ticker     string
	expiration string
	date       string
	current    float64
	target     string
	strategy   string
	snap       bool
	points     int
	reportDir  string
	noChart    bool

	longCall  string
	shortCall string
	longPut   string
	shortPut  string
}

func newPickCmd(app *App) *cobra.Command {
	opts := &pickOptions{}

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Select and price a strategy for a target price",
		Long: `Select a strategy family from the current and target price, price every
leg from the nearest listed contract and chart the payoff at expiration.

Without --target the target price is read from standard input.`,
		Example: `  option-picker pick --ticker BKNG --expiration 2025-03-21 --date 2025-02-21 --target 5200
  option-picker pick --ticker SPY --expiration 2025-03-21 --strategy iron-condor --short-call-strike "TARGET*1.03"
  option-picker --provider synthetic pick --ticker XYZ --expiration 2030-01-18 --target 120 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, app, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ticker, "ticker", "", "underlying ticker (default: defaults.ticker)")
	f.StringVar(&opts.expiration, "expiration", "", "contract expiration YYYY-MM-DD (default: defaults.expiration)")
	f.StringVar(&opts.date, "date", "", "quote date YYYY-MM-DD (default: defaults.date, then today)")
	f.Float64Var(&opts.current, "current", 0, "current price; looked up when zero")
	f.StringVar(&opts.target, "target", "", "target price; prompted for when empty")
	f.StringVar(&opts.strategy, "strategy", "", "force a strategy: long-call, bull-call-spread, iron-condor, bear-put-spread, long-put")
	f.BoolVar(&opts.snap, "snap", false, "build legs at the listed strike instead of the requested one")
	f.IntVar(&opts.points, "points", 0, "curve samples (default: chart.points)")
	f.StringVar(&opts.reportDir, "report-dir", "", "write selection.json and curve.csv to this directory")
	f.BoolVar(&opts.noChart, "no-chart", false, "skip the ASCII chart")
	f.StringVar(&opts.longCall, "long-call-strike", "", "long call strike expression, e.g. TARGET*0.95")
	f.StringVar(&opts.shortCall, "short-call-strike", "", "short call strike expression")
	f.StringVar(&opts.longPut, "long-put-strike", "", "long put strike expression")
	f.StringVar(&opts.shortPut, "short-put-strike", "", "short put strike expression")

	return cmd
}

func runPick(cmd *cobra.Command, app *App, opts *pickOptions) error {
	cfg := app.Config
	output := NewOutput(cmd)

	ticker := firstNonEmpty(opts.ticker, cfg.Defaults.Ticker)
	if ticker == "" {
		return fmt.Errorf("%w: --ticker is required", strategy.ErrInvalidInput)
	}
	expiry, err := config.ParseDate(firstNonEmpty(opts.expiration, cfg.Defaults.Expiration))
	if err != nil || expiry.IsZero() {
		return fmt.Errorf("%w: --expiration must be YYYY-MM-DD", strategy.ErrInvalidInput)
	}
	asOf, err := config.ParseDate(firstNonEmpty(opts.date, cfg.Defaults.Date))
	if err != nil {
		return fmt.Errorf("%w: --date must be YYYY-MM-DD", strategy.ErrInvalidInput)
	}

	name, err := strategy.ParseName(opts.strategy)
	if err != nil {
		return err
	}

	prov, err := app.Provider()
	if err != nil {
		return err
	}
	m := strategy.Market{Provider: prov, Underlying: strings.ToUpper(ticker), Expiration: expiry, AsOf: asOf}

	ctx := cmd.Context()
	current := opts.current
	if current == 0 {
		if current, err = m.CurrentPrice(ctx); err != nil {
			return err
		}
	}

	targetText := opts.target
	if strings.TrimSpace(targetText) == "" {
		if targetText, err = promptTarget(cmd.InOrStdin(), cmd.ErrOrStderr(), current); err != nil {
			return err
		}
	}
	target, err := cast.ToFloat64E(strings.TrimSpace(targetText))
	if err != nil {
		return fmt.Errorf("%w: target price %q", strategy.ErrInvalidInput, targetText)
	}

	overrides, err := strategy.SharedOverridesFromExprs(current, target, opts.longCall, opts.shortCall, opts.longPut, opts.shortPut)
	if err != nil {
		return err
	}

	selector := strategy.Selector{Parallel: cfg.Selector.ParallelLookups}
	res, err := selector.Select(ctx, m, strategy.Request{
		Current:      current,
		Target:       target,
		Strategy:     name,
		Overrides:    overrides,
		SnapToListed: opts.snap,
	})
	if err != nil {
		return err
	}

	points := opts.points
	if points <= 0 {
		points = cfg.Chart.Points
	}
	sel := report.NewSelection(m, current, target, res, points)

	if opts.reportDir != "" {
		if err := report.WriteFiles(opts.reportDir, sel); err != nil {
			return err
		}
	}

	if output.IsJSON() {
		return output.JSON(sel)
	}

	printSelection(output, sel)
	if opts.noChart {
		return nil
	}
	output.Println()
	return chart.RenderASCII(output.Writer(), res.Payoff, chart.Options{
		Title:   fmt.Sprintf("%s %s %s", sel.Underlying, sel.Strategy, sel.Expiration),
		Current: current,
		Target:  target,
		Width:   cfg.Chart.Width,
		Height:  cfg.Chart.Height,
	})
}

// promptTarget asks for the target price on in.
func promptTarget(in io.Reader, out io.Writer, current float64) (string, error) {
	fmt.Fprintf(out, "Current price: %.2f\nTarget price: ", current)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && strings.TrimSpace(line) != "") {
		return "", fmt.Errorf("%w: no target price given", strategy.ErrInvalidInput)
	}
	return strings.TrimSpace(line), nil
}

func printSelection(output *Output, sel report.Selection) {
	output.Info("%s on %s (expires %s)", sel.Strategy, sel.Underlying, sel.Expiration)
	output.Printf("  Current price:  %.2f\n", sel.CurrentPrice)
	output.Printf("  Target price:   %.2f\n", sel.TargetPrice)
	output.Println()

	output.Bold("Legs")
	for i, leg := range sel.Legs {
		c := sel.Contracts[i]
		output.Printf("  %-5s %-4s %9.2f  premium %7.2f  (%s @ %.2f)\n",
			leg.Side(), leg.Kind(), leg.Strike, leg.Premium, c.InstrumentID, c.Strike)
	}
	output.Println()

	output.Printf("  Net cost:       %.2f\n", sel.NetCost)
	output.Printf("  Profit at target price: %s\n", output.Signed(sel.ProfitAtTarget))
	printSummary(output, sel.Summary)
}

func printSummary(output *Output, s payoff.Summary) {
	maxProfit, maxLoss := "unlimited", "unlimited"
	if !s.UnboundedProfit() {
		maxProfit = output.Signed(s.MaxProfit)
	}
	if !s.UnboundedLoss() {
		maxLoss = output.Signed(s.MaxLoss)
	}
	output.Printf("  Max profit:     %s\n", maxProfit)
	output.Printf("  Max loss:       %s\n", maxLoss)

	be := make([]string, len(s.Breakevens))
	for i, b := range s.Breakevens {
		be[i] = fmt.Sprintf("%.2f", b)
	}
	if len(be) == 0 {
		be = []string{"none"}
	}
	output.Printf("  Breakeven:      %s\n", strings.Join(be, ", "))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

