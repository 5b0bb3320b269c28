package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/go-musichub/internal/charts"
	"github.com/justestif/go-musichub/internal/lyrics"
	"github.com/justestif/go-musichub/internal/recommend"
)

func cmdRecommend() *cobra.Command {
	var req recommend.Request

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend playable tracks similar to a song",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(req.Name) == "" {
				return errors.New("--name is required")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.recommend.Configured() {
					a.logger.Warn("set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET to enable recommendations")
				}
				resp, err := a.recommend.Recommend(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "song title")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "artist name")
	cmd.Flags().IntVar(&req.Limit, "limit", recommend.DefaultLimit, "number of tracks")
	return cmd
}

func cmdSearch() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog and pick a top artist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.search.Search(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func cmdCharts() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "List top chart songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.charts.Top(ctx, limit))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", charts.DefaultLimit, "number of songs")
	return cmd
}

func cmdLyrics() *cobra.Command {
	var q lyrics.Query

	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Fetch lyrics for a track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				l, err := a.lyrics.Get(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), l)
			})
		},
	}
	cmd.Flags().StringVar(&q.Track, "track", "", "track name")
	cmd.Flags().StringVar(&q.Artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&q.Album, "album", "", "album name (enables strict lookup with --duration)")
	cmd.Flags().IntVar(&q.DurationSeconds, "duration", 0, "track duration in seconds")
	return cmd
}
