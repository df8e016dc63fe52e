package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List reporting periods with submitted data for a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("report"); err != nil {
			return err
		}

		companyID, _ := cmd.Flags().GetString("company")
		if companyID == "" {
			return eris.New("periods: --company is required")
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		periods, err := svc.Periods(ctx, companyID)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			fmt.Println("No data submitted yet.")
			return nil
		}
		for _, p := range periods {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	periodsCmd.Flags().String("company", "", "company ID")
	rootCmd.AddCommand(periodsCmd)
}
