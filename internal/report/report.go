// Package report renders calculation results for terminal output.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/voltdrop-cli/internal/calc"
	"github.com/sells-group/voltdrop-cli/internal/model"
	"github.com/sells-group/voltdrop-cli/internal/store"
)

var printer = message.NewPrinter(language.English)

// WriteResult renders a full voltage-drop result as an aligned table.
func WriteResult(out io.Writer, input model.CircuitInput, result *model.VoltageDropResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	name := input.Name
	if name == "" {
		name = input.ID
	}
	if name != "" {
		_, _ = fmt.Fprintf(w, "Circuit\t%s\n", name)
	}
	_, _ = fmt.Fprintf(w, "Conductor\t%s %s, %s ft\n", input.ConductorSize, input.Material, printer.Sprintf("%.0f", input.ConductorLength))
	if cm, ok := calc.CircularMils(input.ConductorSize); ok {
		_, _ = fmt.Fprintf(w, "Area\t%s cmil\n", printer.Sprintf("%.0f", cm))
	}
	_, _ = fmt.Fprintf(w, "Voltage drop\t%.2f V (%.2f%%)\n", result.DropVolts, result.DropPercent)
	_, _ = fmt.Fprintf(w, "Receiving voltage\t%.2f V\n", result.ReceivingVoltage)
	_, _ = fmt.Fprintf(w, "Power loss\t%.2f W resistive, %.2f VA total\n", result.ResistiveLossW, result.TotalLossVA)
	_, _ = fmt.Fprintf(w, "Limit\t%.2f%%\n", result.MaxAllowedDrop)
	_, _ = fmt.Fprintf(w, "Compliance\t%s\n", result.Compliance)
	if result.StartingDropPercent > 0 {
		_, _ = fmt.Fprintf(w, "Starting drop\t%.2f%%\n", result.StartingDropPercent)
	}
	_, _ = fmt.Fprintf(w, "Ampacity\t%.1f A (derated %.1f A, adequate: %v)\n",
		result.WireRating.AmpacityA, result.WireRating.DeratedAmpacityA, result.WireRating.Adequate)
	_ = w.Flush()

	for _, rec := range result.Recommendations {
		_, _ = fmt.Fprintf(out, "  - %s\n", rec)
	}
}

// WriteScenarioTable renders saved scenarios one per line.
func WriteScenarioTable(out io.Writer, scenarios []store.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSIZE\tDROP %\tCOMPLIANCE\tCREATED")
	for _, sc := range scenarios {
		drop := "-"
		compliance := "-"
		if sc.Result != nil {
			drop = fmt.Sprintf("%.2f", sc.Result.DropPercent)
			compliance = string(sc.Result.Compliance)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sc.ID, sc.Name, sc.Input.ConductorSize, drop, compliance,
			sc.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// WriteBatchSummary renders per-job outcomes followed by totals.
func WriteBatchSummary(out io.Writer, jobs []*model.BatchJob) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "JOB\tSTATUS\tDROP %\tCOMPLIANCE")
	completed := 0
	failed := 0
	for _, job := range jobs {
		drop := "-"
		compliance := "-"
		switch job.Status {
		case model.JobCompleted:
			completed++
			drop = fmt.Sprintf("%.2f", job.Result.DropPercent)
			compliance = string(job.Result.Compliance)
		case model.JobError:
			failed++
			compliance = job.Err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", job.ID, job.Status, drop, compliance)
	}
	_ = w.Flush()
	_, _ = printer.Fprintf(out, "%d jobs: %d completed, %d failed\n", len(jobs), completed, failed)
}
