package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-picker/internal/chart"
	"github.com/contactkeval/option-picker/internal/payoff"
	"github.com/contactkeval/option-picker/internal/strategy"
)

func newPayoffCmd(app *App) *cobra.Command {
	var (
		legSpecs  []string
		low, high float64
		points    int
		noChart   bool
	)

	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Evaluate the payoff of arbitrary legs",
		Long: `Evaluate legs given as side:type:strike:premium without market data and
print net cost, max profit, max loss, breakevens and a chart.`,
		Example: `  option-picker payoff --leg long:call:100:5 --leg short:call:110:2
  option-picker payoff --leg long:put:95:1.2 --leg short:put:100:2.9 --low 80 --high 120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			legs, err := parseLegs(legSpecs)
			if err != nil {
				return err
			}

			if low == 0 && high == 0 {
				lo, hi := strikeRange(legs)
				low, high = chart.Bounds(lo, hi)
			}
			if high <= low {
				return fmt.Errorf("%w: --high must be above --low", strategy.ErrInvalidInput)
			}
			if points <= 0 {
				points = app.Config.Chart.Points
			}

			fn := payoff.Combine(legs)
			summary := payoff.Summarize(legs)
			netCost := payoff.NetCost(legs)

			if output.IsJSON() {
				return output.JSON(struct {
					Legs    []payoff.Leg   `json:"legs"`
					NetCost float64        `json:"net_cost"`
					Summary payoff.Summary `json:"summary"`
					Curve   []chart.Point  `json:"curve"`
				}{legs, netCost, summary, chart.Sample(fn, low, high, points)})
			}

			output.Bold("Legs")
			for _, l := range legs {
				output.Printf("  %s\n", l)
			}
			output.Println()
			output.Printf("  Net cost:       %.2f\n", netCost)
			printSummary(output, summary)

			if noChart {
				return nil
			}
			output.Println()
			return chart.RenderASCII(output.Writer(), fn, chart.Options{
				Low:    low,
				High:   high,
				Width:  app.Config.Chart.Width,
				Height: app.Config.Chart.Height,
			})
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&legSpecs, "leg", nil, "leg as side:type:strike:premium, e.g. long:call:100:5 (repeatable)")
	f.Float64Var(&low, "low", 0, "lowest price to evaluate (default: 0.75 x lowest strike)")
	f.Float64Var(&high, "high", 0, "highest price to evaluate (default: 1.25 x highest strike)")
	f.IntVar(&points, "points", 0, "curve samples in JSON output (default: chart.points)")
	f.BoolVar(&noChart, "no-chart", false, "skip the ASCII chart")
	_ = cmd.MarkFlagRequired("leg")

	return cmd
}

// parseLegs parses side:type:strike:premium specs. Side is long|short
// (or buy|sell), type is call|put (or c|p).
func parseLegs(specs []string) ([]payoff.Leg, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one --leg is required", strategy.ErrInvalidInput)
	}

	legs := make([]payoff.Leg, 0, len(specs))
	for _, spec := range specs {
		leg, err := parseLeg(spec)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func parseLeg(spec string) (payoff.Leg, error) {
	bad := func(why string) error {
		return fmt.Errorf("%w: leg %q: %s", strategy.ErrInvalidInput, spec, why)
	}

	parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), ":")
	if len(parts) != 4 {
		return payoff.Leg{}, bad("want side:type:strike:premium")
	}

	var isLong bool
	switch parts[0] {
	case "long", "buy", "l", "b":
		isLong = true
	case "short", "sell", "s":
	default:
		return payoff.Leg{}, bad("side must be long or short")
	}

	var isCall bool
	switch parts[1] {
	case "call", "c":
		isCall = true
	case "put", "p":
	default:
		return payoff.Leg{}, bad("type must be call or put")
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || math.IsNaN(strike) || math.IsInf(strike, 0) || strike <= 0 {
		return payoff.Leg{}, bad("strike must be a positive number")
	}
	premium, err := strconv.ParseFloat(parts[3], 64)
	if err != nil || math.IsNaN(premium) || math.IsInf(premium, 0) || premium < 0 {
		return payoff.Leg{}, bad("premium must be a non-negative number")
	}

	return payoff.NewLeg(strike, isCall, isLong, premium), nil
}

func strikeRange(legs []payoff.Leg) (lo, hi float64) {
	lo, hi = math.Inf(1), 0
	for _, l := range legs {
		lo, hi = math.Min(lo, l.Strike), math.Max(hi, l.Strike)
	}
	return lo, hi
}
