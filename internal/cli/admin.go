package cli

import (
	"fmt"

	"assessment-service/internal/app"
	"github.com/spf13/cobra"
)

// NewCreateAdminCmd stores a console operator with a bcrypt password hash.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account (no-op if the email exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			b, err := openBackend(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			admin, created, err := app.NewAdminService(b.stores, nil, nil, log).CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if !created {
				log.Info("admin already exists", "email", admin.Email)
				return nil
			}
			log.Info("admin created", "email", admin.Email, "id", admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Admin User", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// NewBackfillCmd assigns certificate identifiers to eligible submissions
// stored without one.
func NewBackfillCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-certificates",
		Short: "Issue certificate IDs for eligible submissions missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			b, err := openBackend(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			issuer := app.NewCertificateIssuer(cfg.Quiz.CertificatePrefix, b.stores.Submissions)
			updated, err := app.NewAdminService(b.stores, nil, issuer, log).BackfillCertificates(cmd.Context())
			if err != nil {
				return fmt.Errorf("backfill stopped after %d updates: %w", updated, err)
			}
			log.Info("backfill complete", "updated", updated)
			return nil
		},
	}
}
