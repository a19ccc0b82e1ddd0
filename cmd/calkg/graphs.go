package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/graphstore"
)

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "Manage stored knowledge graphs (list, show, delete)",
}

var graphsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List graphs in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openGraphDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		infos, err := db.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No graphs stored.")
			return nil
		}
		fmt.Printf("%-18s  %-40s  %8s  %8s  %s\n", "Doc ID", "Title", "Nodes", "Edges", "Created")
		for _, info := range infos {
			title := info.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Printf("%-18s  %-40s  %8d  %8d  %s\n",
				info.DocID, title, info.TotalNodes, info.TotalEdges, info.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var graphsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Print a stored graph as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openGraphDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		g, err := db.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	},
}

var graphsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a stored graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openGraphDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted graph %s\n", args[0])
		return nil
	},
}

func openGraphDB(cmd *cobra.Command) (*graphstore.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	return graphstore.Open(dbPath)
}

func init() {
	graphsCmd.PersistentFlags().String("db", "data/graphs.db", "SQLite database path")

	graphsCmd.AddCommand(graphsListCmd)
	graphsCmd.AddCommand(graphsShowCmd)
	graphsCmd.AddCommand(graphsDeleteCmd)
	rootCmd.AddCommand(graphsCmd)
}
