package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/logger"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	token   string
	timeout time.Duration

	// swapped in tests
	bcryptGenerate = bcrypt.GenerateFromPassword
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cardledger-cli",
		Short: "CardLedger CLI tool",
		Long:  `A command line interface for operating the CardLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CardLedger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	billingCmd := &cobra.Command{
		Use:   "billing",
		Short: "Billing operations",
	}
	billingCmd.AddCommand(&cobra.Command{
		Use:   "run [user-id]",
		Short: "Charge a user's due monthly fees",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			apiCall(http.MethodPost, "/api/v1/fees/billing/"+args[0]+"/run")
		},
	})

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "reconcile [user-id]",
		Short: "Compare a user's stored balance against their ledger",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			apiCall(http.MethodGet, "/api/v1/ledger/reconcile?user_id="+args[0])
		},
	})

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Fee operations",
	}
	feesCmd.AddCommand(&cobra.Command{
		Use:   "summary [user-id]",
		Short: "Show a user's fee schedule and totals",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			apiCall(http.MethodGet, "/api/v1/fees/summary?user_id="+args[0])
		},
	})

	rootCmd.AddCommand(billingCmd, ledgerCmd, feesCmd, migrateCmd(), hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Run database migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})

			switch args[0] {
			case "up":
				return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
			case "down":
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
			default:
				return fmt.Errorf("unknown direction %q, want up or down", args[0])
			}
		},
	}
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func apiCall(method, path string) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 2000))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
