package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/codewing/plugin-updater/pkg/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var defaultManifestHostURLs = []string{
	"https://updates.codewing.example",
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	cmd := &cobra.Command{
		Use:     "manifest-publish",
		Short:   "Regenerate plugin manifests from their latest releases",
		Version: version,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(log, cmd, args); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	cmd.PersistentFlags().StringArrayP("host-url", "u", defaultManifestHostURLs, "the manifest host URL")
	cmd.PersistentFlags().String("admin-access-token", os.Getenv("MANIFEST_HOST_ADMIN_ACCESS_TOKEN"), "admin access token")
	cmd.PersistentFlags().StringP("slug", "s", "", "the plugin slug (all plugins if empty)")
	cmd.PersistentFlags().SortFlags = false

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func run(log *logrus.Logger, cmd *cobra.Command, _ []string) error {
	log.Infof("starting manifest-publish (version=%s)", version)
	hostURLs := must(cmd.PersistentFlags().GetStringArray("host-url"))
	if len(hostURLs) == 0 {
		return errors.New("no manifest host URLs provided")
	}
	adminAccessToken := must(cmd.PersistentFlags().GetString("admin-access-token"))
	if adminAccessToken == "" {
		return errors.New("no admin access token provided")
	}
	slug := must(cmd.PersistentFlags().GetString("slug"))
	if slug == "" {
		log.Warn("refreshing all manifests...")
	} else {
		log.Infof("refreshing manifest of %s.", slug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed bool
	for _, url := range hostURLs {
		url = strings.TrimSuffix(url, "/")
		if !strings.HasSuffix(url, "/api/v1") {
			url += "/api/v1"
		}
		log.Infof("refreshing manifest host: %s", url)
		c := client.New(url)
		if err := c.RefreshManifest(ctx, adminAccessToken, slug); err != nil {
			log.Errorf("failed to refresh manifest host %s: %v", url, err)
			failed = true
		}
	}
	if failed {
		return errors.New("at least one manifest host could not be refreshed")
	}
	return nil
}
