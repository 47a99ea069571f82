package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rediscover programs and desktop applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		// openEngine may already have run the first scan; run again so an
		// explicit `quiver scan` always reflects the current system.
		if err := eng.ScanNow(); err != nil {
			return err
		}

		n, err := db.CountDiscovered()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d actions in store\n", n)
		return nil
	},
}
