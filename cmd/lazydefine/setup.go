package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/lazydefine/internal/config"
	"github.com/vango-dev/lazydefine/internal/errors"
	"github.com/vango-dev/lazydefine/pkg/customelements"
	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
	"github.com/vango-dev/lazydefine/pkg/loader"
)

// loadConfig reads --config if given, otherwise searches from the working
// directory, and validates the result.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr at the configured level, or
// debug with --verbose.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildLoader assembles the loader chain for cfg. http and https URLs always
// go to the HTTP loader; s3 URLs go to S3 when a bucket is configured; the
// configured kind handles everything else. A positive cache TTL wraps the
// chain in a cache.
func buildLoader(cfg *config.Config) (loader.Loader, error) {
	client := &http.Client{Timeout: cfg.Loader.Timeout}
	httpLoader := loader.NewHTTP(client)

	mux := loader.NewMux().Handle(httpLoader, "http", "https")

	var s3Loader *loader.S3
	if cfg.Loader.S3.Bucket != "" {
		s3Loader = loader.NewS3(newS3Client(cfg.Loader.S3, client), cfg.Loader.S3.Bucket, cfg.Loader.S3.Prefix)
		mux.Handle(s3Loader, "s3")
	}

	switch cfg.Loader.Kind {
	case config.LoaderImport:
		mux.Fallback(loader.Import)
	case config.LoaderHTTP:
		mux.Fallback(httpLoader)
	case config.LoaderFS:
		fsLoader := loader.NewFS(os.DirFS(cfg.Loader.Dir))
		mux.Handle(fsLoader, "file").Fallback(fsLoader)
	case config.LoaderS3:
		if s3Loader == nil {
			return nil, errors.New("E301").WithDetail("loader.s3.bucket is required for the s3 loader")
		}
		mux.Fallback(s3Loader)
	default:
		return nil, errors.New("E301").WithDetail("unknown loader.kind " + cfg.Loader.Kind)
	}

	if cfg.Loader.CacheTTL > 0 {
		return loader.Cached(mux, cfg.Loader.CacheTTL), nil
	}
	return mux, nil
}

// newS3Client builds an S3 client from configuration. Credentials come from
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when set; otherwise requests
// are anonymous, which suits public buckets.
func newS3Client(cfg config.S3Config, httpClient *http.Client) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		Credentials:  envCredentials(),
		UsePathStyle: cfg.PathStyle,
		HTTPClient:   httpClient,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	creds := aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return creds, nil
	})
}

// engine is the wired set of components one command works with.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *customelements.Registry
	observer *lazydef.Observer
	metrics  *prometheus.Registry
}

// newEngine creates a registry attached to doc and an observer configured
// from cfg.
func newEngine(ctx context.Context, cfg *config.Config, doc *dom.Document) (*engine, error) {
	logger := newLogger(cfg)

	l, err := buildLoader(cfg)
	if err != nil {
		return nil, err
	}

	reg := customelements.New(
		customelements.WithRoleAttribute(cfg.RoleAttribute),
		customelements.WithLogger(logger),
	)
	reg.Attach(doc)

	metrics := prometheus.NewRegistry()
	opts := []lazydef.Option{
		lazydef.WithURLResolver(cfg.ModuleURL),
		lazydef.WithLoader(l),
		lazydef.WithRegistry(reg),
		lazydef.WithRoleAttribute(cfg.RoleAttribute),
		lazydef.WithBaseURL(cfg.BaseURL),
		lazydef.WithLogger(logger),
		lazydef.WithMetrics(metrics),
		lazydef.WithContext(ctx),
	}
	if len(cfg.Filter) > 0 {
		opts = append(opts, lazydef.WithFilter(cfg.Filter))
	}

	obs, err := lazydef.New(opts...)
	if err != nil {
		return nil, err
	}

	lazydef.SetUnhandledErrorHandler(func(err error) {
		logger.Error("definition failed", "error", err)
	})

	return &engine{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		observer: obs,
		metrics:  metrics,
	}, nil
}
