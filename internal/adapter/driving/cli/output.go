package cli

import (
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
)

// outputFlags binds the flags that select how results are written.
type outputFlags struct {
	format  string
	json    bool
	noColor bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.format, "format", "table", "Output format: table, json, markdown or html")
	fs.BoolVar(&f.json, "json", false, "Shorthand for --format json")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored table output")
}

func (f *outputFlags) options(a *app) (render.Options, error) {
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return render.Options{}, err
	}
	if f.json {
		format = render.FormatJSON
	}
	return render.Options{Format: format, Now: a.opts.Clock(), NoColor: f.noColor}, nil
}
