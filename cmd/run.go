package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nstepro/the-compound-sub000/internal/pipeline"
	anthropicpkg "github.com/nstepro/the-compound-sub000/pkg/anthropic"
	"github.com/nstepro/the-compound-sub000/pkg/notion"
	"github.com/nstepro/the-compound-sub000/pkg/places"
)

var (
	runDocumentID  string
	runFullRefresh bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the document-to-catalog pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		documentID := runDocumentID
		if documentID == "" {
			documentID = cfg.Notion.DocumentID
		}
		if documentID == "" {
			return eris.New("no document id: set --document or notion.document_id")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}

		history, err := initRunLog(ctx)
		if err != nil {
			zap.L().Warn("run log unavailable, continuing without history", zap.Error(err))
			history = nil
		} else {
			defer history.Close() //nolint:errcheck
		}

		notionClient := notion.NewClient(cfg.Notion.Token)
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		placesClient := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))

		p := pipeline.New(cfg, notionClient, anthropicClient, placesClient, st, history)

		catalog, err := p.Run(ctx, documentID, pipeline.RunOptions{
			FullRefresh: runFullRefresh,
			OnProgress: func(ev pipeline.Event) {
				zap.L().Info("progress", zap.String("phase", ev.Phase), zap.String("message", ev.Message))
			},
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		summary := map[string]any{
			"sourceId":    catalog.Metadata.SourceID,
			"sourceTitle": catalog.Metadata.SourceTitle,
			"totalPlaces": catalog.Metadata.TotalPlaces,
			"categories":  catalog.Metadata.Categories,
			"stats":       catalog.Metadata.EnrichmentStats,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runDocumentID, "document", "", "Notion page ID of the guide document (defaults to notion.document_id)")
	runCmd.Flags().BoolVar(&runFullRefresh, "full-refresh", false, "Re-enrich every place regardless of prior enrichment status")
	rootCmd.AddCommand(runCmd)
}
