package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/codewing/plugin-updater/internal/config"
	"github.com/codewing/plugin-updater/internal/host"
	"github.com/codewing/plugin-updater/internal/metrics"
	"github.com/codewing/plugin-updater/internal/transient"
	"github.com/codewing/plugin-updater/internal/updater"
	"github.com/codewing/plugin-updater/pkg/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

type app struct {
	log   *logrus.Logger
	cfg   *config.UpdaterConfig
	hooks *host.Hooks
	// run in reverse order on exit
	closers []func()
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.Out = os.Stderr

	cfg, err := config.NewUpdaterConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	a := &app{log: log, cfg: cfg}
	cmd := &cobra.Command{
		Use:     "plugin-update-check",
		Short:   "Run the plugin update hooks against a remote manifest",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.shutdown()
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ManifestURL, "manifest-url", cfg.ManifestURL, "the remote manifest URL")
	flags.StringVar(&cfg.Slug, "slug", cfg.Slug, "the plugin slug")
	flags.StringVar(&cfg.PluginFile, "plugin-file", cfg.PluginFile, "the plugin file relative to the plugins directory")
	flags.StringVar(&cfg.CurrentVersion, "current-version", cfg.CurrentVersion, "the installed plugin version")
	flags.StringVar(&cfg.HostVersion, "host-version", cfg.HostVersion, "the host CMS version")
	flags.StringVar(&cfg.RuntimeVersion, "runtime-version", cfg.RuntimeVersion, "the runtime (PHP) version")
	flags.StringVar(&cfg.CacheBackend, "cache", cfg.CacheBackend, "the transient store (memory or firestore)")
	flags.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "the manifest request timeout")
	flags.BoolVar(&cfg.ExportMetrics, "export-metrics", cfg.ExportMetrics, "export update check metrics to Stackdriver")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.SortFlags = false

	cmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Apply the update transient filter and print the offered updates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.check(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "info [slug]",
			Short: "Apply the plugin information filter and print the plugin details",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				slug := a.cfg.Slug
				if len(args) > 0 {
					slug = args[0]
				}
				return a.info(cmd.Context(), cmd.OutOrStdout(), slug)
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Signal a completed plugin update so the cached manifest is evicted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a.hooks.DoUpgradeComplete(cmd.Context(), &updater.UpgradeEvent{
					Action:  updater.UpgradeActionUpdate,
					Type:    updater.UpgradeTypePlugin,
					Plugins: []string{a.cfg.PluginFile},
				})
				return nil
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	if missing := a.cfg.MissingPlatformVersions(); len(missing) > 0 {
		a.log.Warnf("platform versions not set (%s): manifests with requirements will never be offered as updates", strings.Join(missing, ", "))
	}

	if a.cfg.ExportMetrics {
		a.log.Debug("starting metrics exporter...")
		exporter, err := metrics.NewExporter(a.cfg.ProjectID, "plugin-update-check", a.cfg.Stage)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() {
			exporter.Flush()
			exporter.StopMetricsExporter()
		})
	}

	store, closeFn, err := a.createStore(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		a.closers = append(a.closers, closeFn)
	}

	checker := updater.New(a.log,
		updater.LocalPlugin{
			Slug:           a.cfg.Slug,
			PluginFile:     a.cfg.PluginFile,
			CurrentVersion: a.cfg.CurrentVersion,
		},
		client.NewManifestClient(a.cfg.ManifestURL, client.WithTimeout(a.cfg.RequestTimeout)),
		store,
		updater.StaticPlatform{Host: a.cfg.HostVersion, Runtime: a.cfg.RuntimeVersion},
		updater.WithCacheKey(a.cfg.CacheKey),
		updater.WithTTL(a.cfg.CacheTTL),
	)
	a.hooks = host.NewHooks()
	host.Register(a.hooks, checker)
	return nil
}

func (a *app) shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) createStore(ctx context.Context) (transient.Store, func(), error) {
	switch a.cfg.CacheBackend {
	case config.CacheBackendMemory:
		return transient.NewMemoryStore(), nil, nil
	case config.CacheBackendFirestore:
		transient.CollectionPrefix = a.cfg.Stage
		db, err := firestore.NewClient(ctx, a.cfg.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return transient.NewFirestoreStore(db), func() {
			if err := db.Close(); err != nil {
				a.log.Error(err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", a.cfg.CacheBackend)
	}
}

func (a *app) check(ctx context.Context, out io.Writer) error {
	res := a.hooks.ApplyUpdateTransient(ctx, &updater.UpdateTransient{
		LastChecked: time.Now().Unix(),
		Checked:     map[string]string{a.cfg.PluginFile: a.cfg.CurrentVersion},
		Response:    make(map[string]*updater.UpdateCandidate),
	})
	if len(res.Response) == 0 {
		a.log.Infof("%s %s is up to date", a.cfg.Slug, a.cfg.CurrentVersion)
	}
	return writeJSON(out, res)
}

func (a *app) info(ctx context.Context, out io.Writer, slug string) error {
	details := a.hooks.ApplyPluginsAPI(ctx, updater.ActionPluginInformation, &updater.PluginQuery{Slug: slug})
	if details == nil {
		return fmt.Errorf("no plugin information available for %s", slug)
	}
	return writeJSON(out, details)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
