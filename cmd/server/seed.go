package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"equilibrium/internal/placement/enrollment"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/requestcontext"
)

const seedTariff id.TariffCode = "tariff_100"

func seedCmd() *cobra.Command {
	var children int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a root member and demo partners, each placed on tariff_100",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if children < 0 {
				return fmt.Errorf("--children must not be negative")
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			root, err := a.seedMember(cmd.Context(), "root", nil)
			if err != nil {
				return err
			}
			for i := 1; i <= children; i++ {
				if _, err := a.seedMember(cmd.Context(), fmt.Sprintf("partner_%d", i), &root); err != nil {
					return err
				}
			}

			stats, err := a.service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded root %s with %d partners: %d nodes, %d bonus entries totalling %s\n",
				root, children, stats.Nodes, stats.Bonuses.Entries, stats.Bonuses.Total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().IntVar(&children, "children", 10, "number of partners referred by the root")
	return cmd
}

// seedMember registers a member, completes their payment and places them the
// way the payment queue would.
func (a *app) seedMember(ctx context.Context, username string, referrer *id.MemberID) (id.MemberID, error) {
	ctx = requestcontext.WithTime(ctx, time.Now().UTC())
	reg, err := a.signup.Register(ctx, enrollment.RegisterRequest{
		Username:   username,
		ReferrerID: referrer,
		TariffCode: seedTariff,
	})
	if err != nil {
		return id.MemberID{}, fmt.Errorf("register %s: %w", username, err)
	}
	result, err := a.signup.Complete(ctx, reg.Payment.ID)
	if err != nil {
		return id.MemberID{}, fmt.Errorf("place %s: %w", username, err)
	}
	a.logger.InfoContext(ctx, "seeded member",
		"username", username,
		"member_id", reg.Member.ID,
		"level", result.Node.Level,
		"position", result.Node.Position,
	)
	return reg.Member.ID, nil
}
