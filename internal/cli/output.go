package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-picker/internal/report"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer   io.Writer
	jsonMode bool
}

// NewOutput creates a new Output instance. Colour follows fatih/color's
// terminal detection.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{writer: cmd.OutOrStdout(), jsonMode: jsonMode}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as indented JSON.
func (o *Output) JSON(data any) error {
	return report.WriteJSON(o.writer, data)
}

func (o *Output) Writer() io.Writer { return o.writer }

func (o *Output) Println(args ...any) {
	fmt.Fprintln(o.writer, args...)
}

func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.writer, format, args...)
}

func (o *Output) Success(format string, args ...any) { o.line(color.FgGreen, format, args...) }
func (o *Output) Error(format string, args ...any)   { o.line(color.FgRed, format, args...) }
func (o *Output) Warning(format string, args ...any) { o.line(color.FgYellow, format, args...) }
func (o *Output) Info(format string, args ...any)    { o.line(color.FgCyan, format, args...) }
func (o *Output) Bold(format string, args ...any)    { o.line(color.Bold, format, args...) }
func (o *Output) Dim(format string, args ...any)     { o.line(color.Faint, format, args...) }

func (o *Output) line(attr color.Attribute, format string, args ...any) {
	color.New(attr).Fprintf(o.writer, format+"\n", args...)
}

// Signed renders a profit in green, a loss in red.
func (o *Output) Signed(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	switch {
	case v > 0:
		return color.GreenString(s)
	case v < 0:
		return color.RedString(s)
	}
	return s
}
