package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/infrastructure/contentfetch"
)

func fetchCmd() *cobra.Command {
	var (
		limit    int
		timeout  time.Duration
		random   bool
		language string
	)

	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Fetch an article and list the links that would become nodes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				logger, _ = zap.NewDevelopment()
			}
			cfg := contentfetch.DefaultConfig()
			cfg.Timeout = timeout
			client := contentfetch.NewClient(cfg, &http.Client{Timeout: timeout}, logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var target string
			switch {
			case random:
				u, err := client.RandomURL(ctx, language)
				if err != nil {
					return err
				}
				target = u
			case len(args) == 1:
				target = args[0]
			default:
				return fmt.Errorf("a url is required unless --random is set")
			}

			result, err := client.Fetch(ctx, target, limit)
			if err != nil {
				fmt.Printf("%s %s\n", statusIcon(false), err)
				return err
			}

			fmt.Printf("%s %s\n", statusIcon(true), brand.Sprint(result.Title))
			subtle.Printf("  %s\n", target)
			subtle.Printf("  %d bytes of content, %d links\n\n", len(result.Content), len(result.Links))

			rows := make([][]string, 0, len(result.Links))
			for i, link := range result.Links {
				rows = append(rows, []string{fmt.Sprint(i + 1), truncate(link.Title, 40), link.URL})
			}
			printTable([]string{"#", "TITLE", "URL"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of links (0 for all)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&random, "random", false, "Fetch a random wikipedia article")
	cmd.Flags().StringVar(&language, "lang", "en", "Wikipedia language for --random")
	return cmd
}
