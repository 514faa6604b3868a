package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/infrastructure/marketplace"
)

func (c *cli) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain marketplace credentials",
	}

	var code string
	ml := &cobra.Command{
		Use:   "mercadolibre",
		Short: "Exchange a MercadoLibre authorization code for a refresh token",
		Long: "Exchanges the one-time code from the MercadoLibre consent redirect and prints\n" +
			"the refresh token to store as marketplace.mercadolibre.refresh_token.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			log, err := c.logger()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync(log)
			}()

			client, err := marketplace.NewMercadoLibreClient(
				marketplace.MercadoLibreConfigFromCredentials(cfg.Marketplace.MercadoLibre),
				marketplace.WithLogger(log),
			)
			if err != nil {
				return err
			}

			token, err := client.ExchangeAuthorizationCode(cmd.Context(), code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refresh_token: %s\n", token.RefreshToken)
			fmt.Fprintf(cmd.OutOrStdout(), "access token expires at: %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	ml.Flags().StringVar(&code, "code", "", "Authorization code from the redirect URL")
	_ = ml.MarkFlagRequired("code")

	cmd.AddCommand(ml)
	return cmd
}
