package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sustainboard/esg-cli/internal/esg"
	"github.com/sustainboard/esg-cli/internal/model"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Recompute and persist the scorecard for one company and period",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("calculate"); err != nil {
			return err
		}

		companyID, _ := cmd.Flags().GetString("company")
		period, _ := cmd.Flags().GetString("period")
		if companyID == "" || !model.ValidPeriod(period) {
			return eris.New("calculate: --company and a --period of the form YYYY-Qn are required")
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		card, err := svc.Calculate(ctx, companyID, period)
		if err != nil {
			return err
		}

		fmt.Println(esg.Summary(card))
		for _, p := range []model.PillarResult{card.Environmental, card.Social, card.Governance} {
			fmt.Printf("  %-13s %5.1f / 100  (%d%% complete", p.Pillar, p.Score, p.Completeness)
			if len(p.MissingCritical) > 0 {
				fmt.Printf(", %d critical gaps", len(p.MissingCritical))
			}
			fmt.Println(")")
		}
		return nil
	},
}

func init() {
	calculateCmd.Flags().String("company", "", "company ID")
	calculateCmd.Flags().String("period", "", "reporting period (YYYY-Qn)")
	rootCmd.AddCommand(calculateCmd)
}
