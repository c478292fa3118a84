package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/imovlocal/backend/internal/auth"
	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/internal/services"
)

var stdin = bufio.NewReader(os.Stdin)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer the database directly (uses the server environment)",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var (
		input  user.AdminInput
		senior bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account directly in the database configured by the
server environment (DB_* variables or .env). The password is prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Email == "" {
				input.Email = promptLine("Email: ")
			}
			if input.Name == "" {
				input.Name = promptLine("Name: ")
			}
			password := promptPassword("Password: ")
			if password == "" {
				return fmt.Errorf("password is required")
			}
			if confirm := promptPassword("Confirm password: "); confirm != password {
				return fmt.Errorf("passwords do not match")
			}
			input.Password = password
			input.UserType = user.TypeAdmin
			if senior {
				input.UserType = user.TypeAdminSenior
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewUserService(postgres.NewUserRepository(db), cfg.Auth.BCryptCost, cliLogger())
			u, err := svc.CreateAdmin(context.Background(), input)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			return printMessage(u, "Admin %s (%s) created with id %s", u.Email, u.UserType, u.ID)
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&input.Name, "name", "", "admin name")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "admin phone")
	cmd.Flags().BoolVar(&senior, "senior", false, "create a senior admin")

	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Mint an access token for an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := postgres.NewUserRepository(db).GetByEmail(context.Background(), strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return fmt.Errorf("failed to find user: %w", err)
			}
			token, err := auth.MintAccessToken(u.ID, u.Email, string(u.UserType), cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			if !save {
				fmt.Fprintln(stdout, token)
				return nil
			}
			if err := saveToken(token); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Token for %s saved (valid for %s)\n", u.Email, cfg.Auth.AccessTokenExpiry)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the token in the CLI config")

	return cmd
}

func openDatabase() (*config.Config, *postgres.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load server config: %w", err)
	}
	db, err := postgres.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func cliLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})
}

func promptLine(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(password)
}
