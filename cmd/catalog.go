package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/internal/tags"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the stored catalog",
}

var catalogShowJSON bool

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}

		data, err := st.Download(ctx, cfg.Store.CatalogKey)
		if err != nil {
			return eris.Wrap(err, "download catalog")
		}
		if data == nil {
			fmt.Fprintln(os.Stderr, "No catalog found.")
			return nil
		}

		if catalogShowJSON {
			_, err = os.Stdout.Write(data)
			return err
		}

		var catalog model.Catalog
		if err := json.Unmarshal(data, &catalog); err != nil {
			return eris.Wrap(err, "parse catalog")
		}

		formatCatalog(os.Stdout, &catalog)
		return nil
	},
}

func formatCatalog(w *os.File, c *model.Catalog) {
	fmt.Fprintf(w, "Source:   %s (%s)\n", c.Metadata.SourceTitle, c.Metadata.SourceID)
	fmt.Fprintf(w, "Built:    %s\n", c.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Places:   %d (enriched %d, skipped %d, failed %d)\n",
		c.Metadata.TotalPlaces,
		c.Metadata.EnrichmentStats.EnrichedPlaces,
		c.Metadata.EnrichmentStats.SkippedPlaces,
		c.Metadata.EnrichmentStats.FailedPlaces)
	fmt.Fprintf(w, "Versions: parser %s, enrichment %s\n\n",
		c.Metadata.ParserVersion, c.Metadata.EnrichmentVersion)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tADDRESS\tHOURS")
	for i := range c.Places {
		p := &c.Places[i]
		hours := ""
		if p.Hours != nil {
			if p.Hours.Weekly != nil {
				hours = tags.SummarizeHours(p.Hours.Weekly)
			} else {
				hours = p.Hours.Text
			}
		}
		hours = strings.ReplaceAll(hours, "\n", "; ")
		if len(hours) > 40 {
			hours = hours[:37] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Type, p.Category, p.Address, hours)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	catalogShowCmd.Flags().BoolVar(&catalogShowJSON, "json", false, "Print the raw catalog JSON")
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}
