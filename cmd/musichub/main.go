// Command musichub serves and queries cross-catalog recommendations, search,
// charts and lyrics.
package main

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

var configPath string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "musichub",
		Short:         "Resolve recommendations from Spotify onto the JioSaavn catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "musichub.yaml", "path to the YAML config file")

	cmd.AddCommand(
		cmdServe(),
		cmdRecommend(),
		cmdSearch(),
		cmdCharts(),
		cmdLyrics(),
	)
	return cmd
}

// withApp builds the app for one command invocation and closes it after fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
