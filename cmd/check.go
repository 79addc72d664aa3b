package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/report"
)

var checkSaveName string

var checkCmd = &cobra.Command{
	Use:   "check <circuit.yaml>",
	Short: "Compute voltage drop for a circuit and check it against code limits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := loadCircuitFile(args[0])
		if err != nil {
			return err
		}

		result, err := calc.ComputeWithLimits(input, cfg.Standards.Limits())
		if err != nil {
			return eris.Wrap(err, "compute voltage drop")
		}

		report.WriteResult(os.Stdout, input, result)

		if checkSaveName != "" {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			saved, err := s.SaveScenario(cmd.Context(), checkSaveName, input, result)
			if err != nil {
				return eris.Wrap(err, "save scenario")
			}
			zap.L().Info("scenario saved",
				zap.String("id", saved.ID),
				zap.String("name", saved.Name),
			)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkSaveName, "save", "", "save the result as a named scenario")
	rootCmd.AddCommand(checkCmd)
}
