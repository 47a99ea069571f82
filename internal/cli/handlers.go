package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List builtin handlers",
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

		states, err := eng.Handlers()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tENABLED")
		for _, h := range states {
			fmt.Fprintf(tw, "%s\t%v\n", h.ID, h.Enabled)
		}
		return tw.Flush()
	},
}

var handlersEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a builtin handler",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setHandler(args[0], true) },
}

var handlersDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a builtin handler",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setHandler(args[0], false) },
}

func init() {
	handlersCmd.AddCommand(handlersEnableCmd)
	handlersCmd.AddCommand(handlersDisableCmd)
}

func setHandler(id string, enabled bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := eng.SetHandlerEnabled(id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("%s %s\n", id, state)
	return nil
}
