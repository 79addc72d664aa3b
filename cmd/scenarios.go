package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/voltdrop-cli/internal/report"
	"github.com/sells-group/voltdrop-cli/internal/store"
)

var (
	scenariosName   string
	scenariosLimit  int
	scenariosOffset int
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Manage saved scenarios",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		scenarios, err := s.ListScenarios(cmd.Context(), store.ScenarioFilter{
			Name:   scenariosName,
			Limit:  scenariosLimit,
			Offset: scenariosOffset,
		})
		if err != nil {
			return err
		}

		if len(scenarios) == 0 {
			fmt.Println("No scenarios saved")
			return nil
		}
		report.WriteScenarioTable(os.Stdout, scenarios)
		return nil
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		sc, err := s.GetScenario(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if sc.Result == nil {
			fmt.Printf("Scenario %s (%s) has no stored result\n", sc.ID, sc.Name)
			return nil
		}
		report.WriteResult(os.Stdout, sc.Input, sc.Result)
		return nil
	},
}

var scenariosDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteScenario(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted scenario %s\n", args[0])
		return nil
	},
}

func init() {
	scenariosListCmd.Flags().StringVar(&scenariosName, "name", "", "filter by scenario name")
	scenariosListCmd.Flags().IntVar(&scenariosLimit, "limit", 50, "max scenarios to list")
	scenariosListCmd.Flags().IntVar(&scenariosOffset, "offset", 0, "skip this many scenarios")
	scenariosCmd.AddCommand(scenariosListCmd, scenariosShowCmd, scenariosDeleteCmd)
	rootCmd.AddCommand(scenariosCmd)
}
