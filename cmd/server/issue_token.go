package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flockmanager/config"
	authadapter "flockmanager/internal/adapters/auth"
	"flockmanager/internal/domain"
	"flockmanager/internal/services"
)

func issueTokenCommand() *cobra.Command {
	var (
		eventID int64
		hours   float64
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a check-in token and URL for an event",
		Long: "Signs a check-in token with APP_SECRET without touching the database, " +
			"for printing posters ahead of an event. The server must run with the same APP_SECRET.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID <= 0 || eventID > domain.MaxStoredID {
				return errors.New("--event must be a positive event id")
			}
			if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
				return errors.New("--hours must be a positive number")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.GeneratedSecret {
				return errors.New("APP_SECRET must be set to issue tokens the server will accept")
			}
			key, err := authadapter.DeriveKey(cfg.AppSecret, authadapter.PurposeCheckInToken)
			if err != nil {
				return err
			}
			codec := authadapter.NewCheckInTokenCodec(key, cfg.CheckInTokenTTL)
			ttl := time.Duration(hours * float64(time.Hour))
			token, err := codec.Issue(eventID, ttl)
			if err != nil {
				return err
			}
			expiresAt, _ := codec.ExpirationOf(token)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:      %s\n", token)
			fmt.Fprintf(out, "url:        %s\n", services.CheckInURL(cfg.FrontendURL, eventID, token))
			fmt.Fprintf(out, "expires_at: %s (%s)\n", expiresAt.UTC().Format(time.RFC3339), formatHours(time.Until(expiresAt).Round(time.Minute)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&eventID, "event", 0, "event id")
	cmd.Flags().Float64Var(&hours, "hours", 0, "token lifetime in hours (default CHECKIN_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// formatHours renders a lifetime for CLI output.
func formatHours(d time.Duration) string {
	return strconv.FormatFloat(d.Hours(), 'f', -1, 64) + "h"
}
