package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docqa/internal/adapter/store"
	"docqa/internal/domain"
)

var (
	collectionsPersistDir string
	collectionsJSON       bool
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in the store",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.Flags().StringVar(&collectionsPersistDir, "db-persist-dir", "", "store directory (default from config, ./db)")
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cmd.Flags().Changed("db-persist-dir") {
		cfg.Store.PersistDir = collectionsPersistDir
	}

	st, err := store.Open(cfg.Store.PersistDir, storeOptions(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Collections()
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if collectionsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	return printCollections(cmd.OutOrStdout(), infos)
}

func printCollections(w io.Writer, infos []domain.CollectionInfo) error {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No collections found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tBACKEND\tMODEL\tDIMENSION\tCREATED")
	for _, c := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			c.Name, c.Size, c.Backend, c.Model, c.Dimension, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
