package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sustainboard/esg-cli/internal/auth"
	"github.com/sustainboard/esg-cli/internal/esg"
	"github.com/sustainboard/esg-cli/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo tenant with sample metric data",
	Long: `Seeds a demo company, an admin user and one quarter of metric data
across the three pillars, then calculates the first scorecard. Intended
for local development and demos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		period, _ := cmd.Flags().GetString("period")
		if len(password) < 8 {
			return eris.New("seed: --password must be at least 8 characters")
		}
		if !model.ValidPeriod(period) {
			return eris.Errorf("seed: invalid period %q", period)
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		company := &model.Company{
			Name:          "Demo Textiles Ltd",
			Industry:      "Textiles",
			EmployeeCount: 420,
			Location:      "Coimbatore",
			Plan:          model.PlanPro,
		}
		if err := st.CreateCompany(ctx, company); err != nil {
			return err
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		admin := &model.User{
			Email:        email,
			Name:         "Demo Admin",
			PasswordHash: hash,
			Role:         model.RoleAdmin,
			Plan:         model.PlanPro,
			CompanyID:    company.ID,
		}
		if err := st.CreateUser(ctx, admin); err != nil {
			return err
		}

		seedData := map[model.Pillar]map[string]any{
			model.PillarEnvironmental: {
				"electricity_kwh":  184000.0,
				"fuel_litres":      5200.0,
				"scope1_emissions": 13.9,
				"scope2_emissions": 131.0,
				"renewable_pct":    22.0,
				"water_withdrawal": 8600.0,
				"waste_generated":  14.2,
				"env_policy":       true,
			},
			model.PillarSocial: {
				"employee_count":      420.0,
				"female_employee_pct": 38.0,
				"training_hours":      6.5,
				"posh_policy":         true,
				"health_insurance":    true,
			},
			model.PillarGovernance: {
				"board_size":                7.0,
				"independent_directors_pct": 29.0,
				"female_directors_pct":      14.0,
				"code_of_conduct":           true,
				"whistleblower_policy":      true,
			},
		}
		for pillar, fields := range seedData {
			if _, err := svc.SubmitMetrics(ctx, company.ID, period, pillar, fields); err != nil {
				return err
			}
		}

		card, err := svc.Calculate(ctx, company.ID, period)
		if err != nil {
			return err
		}

		fmt.Printf("Seeded company %s (%s)\n", company.Name, company.ID)
		fmt.Printf("Admin login: %s\n", admin.Email)
		fmt.Println(esg.Summary(card))
		return nil
	},
}

func init() {
	seedCmd.Flags().String("email", "admin@demo.local", "admin user email")
	seedCmd.Flags().String("password", "changeme-now", "admin user password")
	seedCmd.Flags().String("period", "2026-Q1", "reporting period to seed")
	rootCmd.AddCommand(seedCmd)
}
