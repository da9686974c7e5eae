package main

import (
	"context"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazydefine/internal/config"
	"github.com/vango-dev/lazydefine/internal/errors"
)

func checkCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and resolve module URLs",
		Long: `Load and validate the configuration, then print the module URL each
filtered name resolves to. With --probe every module is also loaded
through the configured loader.

Examples:
  lazydefine check
  lazydefine check --probe --config lazydefine.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Load every filtered module")

	return cmd
}

func runCheck(ctx context.Context, probe bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Path() != "" {
		success("Configuration %s is valid", cfg.Path())
	} else {
		success("No configuration file, using defaults")
	}
	info("Base URL:       %s", cfg.BaseURL)
	info("Role attribute: %s", cfg.RoleAttribute)
	info("Loader:         %s", cfg.Loader.Kind)

	if len(cfg.Filter) == 0 {
		info("Filter:         none, every valid name is defined")
		return nil
	}

	base, _ := url.Parse(cfg.BaseURL)
	var urls []*url.URL
	for _, name := range cfg.Filter {
		u, err := resolveModule(base, cfg, name)
		if err != nil {
			errorMsg("%s  %s", name, err.FormatCompact())
			return err
		}
		urls = append(urls, u)
		info("%-20s %s", name, u)
	}

	if !probe {
		return nil
	}

	l, err := buildLoader(cfg)
	if err != nil {
		return err
	}

	failed := 0
	for i, name := range cfg.Filter {
		lctx, cancel := context.WithTimeout(ctx, cfg.Loader.Timeout)
		start := time.Now()
		impl, err := l.Load(lctx, urls[i])
		cancel()
		switch {
		case err != nil:
			failed++
			errorMsg("%s  %s", name, errors.New("E210").WithName(name).WithURL(urls[i].String()).Wrap(err).FormatCompact())
		case impl == nil:
			warn("%s  module has no definition", name)
		default:
			success("%s  loaded in %s", name, time.Since(start).Round(time.Millisecond))
		}
	}
	if failed > 0 {
		return errors.Newf(errors.CategoryLoad, "%d of %d modules failed to load", failed, len(cfg.Filter))
	}
	return nil
}

// resolveModule mirrors the observer's resolution for a configured name.
func resolveModule(base *url.URL, cfg *config.Config, name string) (*url.URL, *errors.Error) {
	raw := cfg.ModuleURL(name)
	if raw == "" {
		return nil, errors.New("E201").WithName(name)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("E202").WithName(name).Wrap(err)
	}
	return base.ResolveReference(ref), nil
}
