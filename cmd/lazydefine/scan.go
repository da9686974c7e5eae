package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/internal/watch"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
)

func scanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <file.html>",
		Short: "Define every custom element found in a document",
		Long: `Parse an HTML document, run every element through the definition
pipeline once and report the outcome for each name.

The command fails if any definition failed.

Examples:
  lazydefine scan index.html
  lazydefine scan --json index.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print outcomes as JSON")

	return cmd
}

func runScan(ctx context.Context, path string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, err := watch.Open(path, nil)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg, file.Document())
	if err != nil {
		return err
	}

	if err := eng.observer.Observe(file.Document().Node(), lazydef.DefaultObserveOptions()); err != nil {
		return err
	}
	eng.observer.Wait()
	// Templates may insert further custom elements while upgrading.
	file.Document().Flush()
	eng.observer.Wait()
	eng.observer.Disconnect()

	outcomes := eng.observer.Outcomes()
	failed := 0
	for _, o := range outcomes {
		if o.Kind == lazydef.OutcomeFailed {
			failed++
		}
	}

	if asJSON {
		if err := printOutcomesJSON(outcomes); err != nil {
			return err
		}
	} else {
		printOutcomes(outcomes)
	}

	if failed > 0 {
		return errors.Newf(errors.CategoryLoad, "%d of %d definitions failed", failed, len(outcomes))
	}
	return nil
}

func printOutcomes(outcomes []lazydef.Outcome) {
	if len(outcomes) == 0 {
		info("No custom elements found")
		return
	}
	for _, o := range outcomes {
		switch o.Kind {
		case lazydef.OutcomeDefined:
			success("%s  %s", o.Name, o.URL)
		case lazydef.OutcomeSkipped:
			warn("%s  skipped (module has no definition)", o.Name)
		case lazydef.OutcomeFailed:
			errorMsg("%s  %s", o.Name, errors.FromError(o.Err, "E210").FormatCompact())
		default:
			info("%s  %s", o.Name, o.Kind)
		}
	}
}

type outcomeJSON struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Kind  string `json:"kind"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func printOutcomesJSON(outcomes []lazydef.Outcome) error {
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		j := outcomeJSON{Name: o.Name, URL: o.URL, Kind: string(o.Kind)}
		if o.Err != nil {
			j.Error = o.Err.Error()
			if e := errors.FromError(o.Err, ""); e.Code != "" {
				j.Code = e.Code
			}
		}
		out = append(out, j)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}
	return nil
}
