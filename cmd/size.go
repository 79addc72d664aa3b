package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/report"
)

var sizeOptimal bool

var sizeCmd = &cobra.Command{
	Use:   "size <circuit.yaml>",
	Short: "Find the smallest compliant conductor size for a circuit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := loadCircuitFile(args[0])
		if err != nil {
			return err
		}

		limits := cfg.Standards.Limits()

		var size string
		if sizeOptimal {
			size, err = calc.FindOptimalSizeWithLimits(input, limits)
		} else {
			size, err = calc.FindMinimumSizeWithLimits(input, limits)
		}
		if err != nil {
			var noFit *calc.NoCompliantSizeError
			if errors.As(err, &noFit) {
				return eris.Errorf("no standard size up to %s satisfies the limits; split the load or shorten the run", noFit.LargestTried)
			}
			return err
		}

		fmt.Printf("Recommended size: %s\n", size)

		input.ConductorSize = size
		result, err := calc.ComputeWithLimits(input, limits)
		if err != nil {
			return eris.Wrap(err, "verify recommended size")
		}
		report.WriteResult(os.Stdout, input, result)
		return nil
	},
}

func init() {
	sizeCmd.Flags().BoolVar(&sizeOptimal, "optimal", false, "leave headroom above the bare minimum size")
	rootCmd.AddCommand(sizeCmd)
}
