package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/identifier"
	nodex "github.com/tanpawarit/autocheck-bot/bot/nodes"
	"github.com/tanpawarit/autocheck-bot/bot/query"
)

var checkPlate bool

var checkCmd = &cobra.Command{
	Use:   "check [identifier]",
	Short: "Query every provider once and print the consolidated result",
	Long:  "Runs the same fan-out as the bot. Without an argument it checks the diagnostic VIN " + nodex.DiagnosticVIN + ".",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := nodex.DiagnosticVIN
		if len(args) == 1 {
			input = args[0]
		}
		kind := contractx.KindVIN
		if checkPlate {
			kind = contractx.KindPlate
		}

		id, err := identifier.Validate(input, kind)
		if err != nil {
			return err
		}

		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		orchestrator, err := query.New(registry)
		if err != nil {
			return err
		}

		res, err := orchestrator.Run(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "📊 Результаты проверки API (%s %s):\n\n%s\n", id.Kind, id.Value, res.Text)
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkPlate, "plate", false, "treat the identifier as a license plate")
	rootCmd.AddCommand(checkCmd)
}
