// Command treemedia uploads tree photos and drives the moderation queue from a terminal
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitalforest/backend/internal/client"
	"github.com/digitalforest/backend/internal/logger"
	"github.com/digitalforest/backend/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds the flags shared by every command
type cli struct {
	apiURL  string
	apiKey  string
	verbose bool
	out     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:           "treemedia",
		Short:         "Upload and moderate tree photos",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !c.verbose {
				return nil
			}
			return logger.Init("debug")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.apiURL, "api-url", envOrDefault("TREEMEDIA_API_URL", "http://localhost:8080/api/v1"), "Base URL of the tree media API")
	rootCmd.PersistentFlags().StringVar(&c.apiKey, "api-key", os.Getenv("TREEMEDIA_API_KEY"), "Moderator API key")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	rootCmd.AddCommand(
		c.newUploadCommand(),
		c.newReviewCommand(),
		c.newGalleryCommand(),
	)
	return rootCmd
}

func (c *cli) api() *client.APIClient {
	return client.NewAPIClient(c.apiURL, client.WithAPIKey(c.apiKey))
}

func (c *cli) newUploadCommand() *cobra.Command {
	var treeID string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image for a tree, falling back to the server proxy when the direct upload fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := client.OpenFile(args[0])
			if err != nil {
				return err
			}

			orchestrator := client.NewOrchestrator(c.api(),
				client.WithLogger(logger.Logger),
				client.WithOnStage(func(s client.Stage) {
					logger.Logger.Debug("upload stage", zap.String("stage", s.String()))
				}),
			)
			if err := orchestrator.Select(file); err != nil {
				return err
			}

			result, err := orchestrator.Upload(cmd.Context(), treeID)
			if err != nil {
				return err
			}
			if result.PrimaryErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "direct upload failed (%v), uploaded through proxy\n", result.PrimaryErr)
			}
			return c.print(result.Media)
		},
	}

	cmd.Flags().StringVar(&treeID, "tree", "", "Tree identifier")
	cmd.MarkFlagRequired("tree")
	return cmd
}

func (c *cli) newReviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Moderate uploaded media",
	}

	var req models.ListMediaRequest
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List media by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.api().ListMedia(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return c.print(resp)
		},
	}
	listCmd.Flags().StringVar(&req.Status, "status", string(models.MediaStatusPending), fmt.Sprintf("Status to list (%s)", models.StatusList()))
	listCmd.Flags().IntVar(&req.Limit, "limit", 0, "Page size")
	listCmd.Flags().IntVar(&req.Offset, "offset", 0, "Page offset")
	listCmd.Flags().StringSliceVar(&req.TreeIDs, "tree", nil, "Restrict to these tree identifiers")

	updateCmd := &cobra.Command{
		Use:   "update <id> <status>",
		Short: "Move a media item to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseMediaStatus(args[1])
			if err != nil {
				return err
			}
			item, err := c.api().UpdateStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			return c.print(item)
		},
	}

	cmd.AddCommand(listCmd, updateCmd)
	return cmd
}

func (c *cli) newGalleryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gallery <treeId>",
		Short: "List the approved media of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.api().ListTreeMedia(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(models.GalleryResponse{Items: items})
		},
	}
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
