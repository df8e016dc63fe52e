package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/report"
	"github.com/sustainboard/esg-cli/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a scorecard report as JSON or Excel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("report"); err != nil {
			return err
		}

		companyID, _ := cmd.Flags().GetString("company")
		period, _ := cmd.Flags().GetString("period")
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")

		if companyID == "" {
			return eris.New("report: --company is required")
		}
		if period != "" && !model.ValidPeriod(period) {
			return eris.Errorf("report: invalid period %q", period)
		}
		if format != "json" && format != "excel" {
			return eris.Errorf("report: --format must be json or excel (got %q)", format)
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		view, err := svc.Scorecard(ctx, companyID, period)
		if err != nil {
			return err
		}
		if view.Scorecard == nil {
			return eris.Errorf("report: no scorecard for company %s; run calculate first", companyID)
		}

		company, err := st.GetCompany(ctx, companyID)
		if err != nil && !store.IsNotFound(err) {
			return err
		}

		history, err := svc.History(ctx, companyID)
		if err != nil {
			return err
		}

		b := report.NewBuilder()
		var out []byte
		switch format {
		case "excel":
			out, err = b.Excel(view.Scorecard, company, history, "")
		default:
			out, err = b.JSON(view.Scorecard, company, history, "")
		}
		if err != nil {
			return err
		}

		if outputPath == "" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return eris.Wrapf(err, "report: write %s", outputPath)
		}
		fmt.Printf("Report written to %s\n", outputPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("company", "", "company ID")
	reportCmd.Flags().String("period", "", "reporting period (default: latest with data)")
	reportCmd.Flags().String("format", "json", "output format: json or excel")
	reportCmd.Flags().String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(reportCmd)
}
