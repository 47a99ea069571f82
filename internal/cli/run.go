package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runID   string
	runArgs []string
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Execute the best result for a query",
	Long:  "Run searches for the query and executes the top result. Use --id to pick a specific result from a prior search.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runID, "id", "", "execute this result id instead of the top result")
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "extra argument passed to the launched action (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	query := strings.Join(args, " ")

	id := runID
	if id == "" {
		results, err := eng.Search(query)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no results for %q", query)
		}
		id = results[0].ID
	}

	return eng.Execute(id, query, runArgs)
}
