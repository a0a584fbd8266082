package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brewlake",
		Short: "brewlake - medallion ETL for Open Brewery DB data",
		Long: `brewlake ingests brewery records from the Open Brewery DB API and refines
them through bronze (raw capture), silver (validated, partitioned by state/city)
and gold (aggregated) layers. Records failing validation are quarantined with
diagnostic metadata instead of being dropped.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd(), NewReprocessCmd(), NewAggregateCmd())

	return rootCmd
}
