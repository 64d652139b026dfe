package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"ypg-admin-api/internal/config"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/service"
)

func supervisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supervisor",
		Short: "Manage supervisor accounts",
	}
	cmd.AddCommand(supervisorCreateCmd())
	return cmd
}

func supervisorCreateCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a supervisor or reset an existing supervisor's password",
		Long: `Create a supervisor account. When the username already exists its
password is replaced.

Examples:
  ypg-admin-api supervisor create --username admin --password 's3cret-pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			db, err := database.NewDB(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := service.NewService(db, service.Options{Logger: logger})
			sup, err := svc.CreateSupervisor(context.Background(), username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Supervisor %q saved (id %d)\n", sup.Username, sup.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "supervisor username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "supervisor password (at least 8 characters)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}
