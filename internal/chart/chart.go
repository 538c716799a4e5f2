// Package chart samples payoff functions over a price range and draws
// them as text.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/contactkeval/option-picker/internal/payoff"
)

const (
	DefaultPoints = 100
	DefaultWidth  = 72
	DefaultHeight = 20
)

// Point is one sample of a payoff curve.
type Point struct {
	Price  float64 `json:"price" csv:"price"`
	Profit float64 `json:"profit" csv:"profit"`
}

// Bounds is the plotted price range around current and target.
func Bounds(current, target float64) (lo, hi float64) {
	return math.Min(current, target) * 0.75, math.Max(current, target) * 1.25
}

// Sample evaluates fn at n evenly spaced prices from lo to hi inclusive.
func Sample(fn payoff.Func, lo, hi float64, n int) []Point {
	if n < 2 {
		n = 2
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	step := (hi - lo) / float64(n-1)
	pts := make([]Point, n)
	for i := range pts {
		price := lo + float64(i)*step
		if i == n-1 {
			price = hi
		}
		pts[i] = Point{Price: price, Profit: fn(price)}
	}
	return pts
}

// Options controls RenderASCII. Zero sizes use the defaults. Low and
// High, when both set, replace Bounds(Current, Target). A zero Current or
// Target draws no marker for it.
type Options struct {
	Title   string
	Current float64
	Target  float64
	Low     float64
	High    float64
	Width   int
	Height  int
}

const labelWidth = 10

// RenderASCII draws fn over the price range. The current price is marked
// with '|', the target with ':', zero profit with '─'.
func RenderASCII(w io.Writer, fn payoff.Func, opts Options) error {
	width, height := opts.Width, opts.Height
	if width < 10 {
		width = DefaultWidth
	}
	if height < 5 {
		height = DefaultHeight
	}

	lo, hi := Bounds(opts.Current, opts.Target)
	if opts.Low > 0 && opts.High > opts.Low {
		lo, hi = opts.Low, opts.High
	}
	pts := Sample(fn, lo, hi, width)

	yMin, yMax := 0.0, 0.0
	for _, p := range pts {
		yMin = math.Min(yMin, p.Profit)
		yMax = math.Max(yMax, p.Profit)
	}
	if yMax == yMin {
		yMax = yMin + 1
	}

	row := func(v float64) int {
		return int(math.Round((yMax - v) / (yMax - yMin) * float64(height-1)))
	}
	col := func(price float64) int {
		if hi == lo {
			return -1
		}
		return int(math.Round((price - lo) / (hi - lo) * float64(width-1)))
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	zero := row(0)
	for c := range grid[zero] {
		grid[zero][c] = '─'
	}
	for _, mark := range []struct {
		price float64
		r     rune
	}{{opts.Current, '|'}, {opts.Target, ':'}} {
		c := col(mark.price)
		if mark.price <= 0 || c < 0 || c >= width {
			continue
		}
		for r := range grid {
			grid[r][c] = mark.r
		}
	}
	for c, p := range pts {
		grid[row(p.Profit)][c] = '*'
	}

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(opts.Title + "\n")
	}
	for r, line := range grid {
		label := ""
		switch r {
		case 0:
			label = fmt.Sprintf("%.2f", yMax)
		case zero:
			label = "0"
		case height - 1:
			label = fmt.Sprintf("%.2f", yMin)
		}
		fmt.Fprintf(&b, "%*s │%s\n", labelWidth, label, string(line))
	}
	fmt.Fprintf(&b, "%*s └%s\n", labelWidth, "", strings.Repeat("─", width))

	loLabel, hiLabel := fmt.Sprintf("%.2f", lo), fmt.Sprintf("%.2f", hi)
	gap := width - len(loLabel) - len(hiLabel)
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(&b, "%*s  %s%s%s\n", labelWidth, "", loLabel, strings.Repeat(" ", gap), hiLabel)
	if opts.Current > 0 && opts.Target > 0 {
		fmt.Fprintf(&b, "%*s  | current %.2f   : target %.2f\n", labelWidth, "", opts.Current, opts.Target)
		fmt.Fprintf(&b, "Profit at target price: %.2f\n", fn(opts.Target))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
