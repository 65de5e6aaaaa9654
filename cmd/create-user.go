package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/account"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/spf13/cobra"
)

var createUserCmdFlags struct {
	Username string
	Email    string
	Password string
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long:  `Create a user account without going through the signup form. Add the username to admin_users to allow it to reset the database.`,
	Example: `neurofit create-user --username admin --email admin@example.com --password changeme
NEUROFIT_CREATE_USER_PASSWORD=changeme neurofit create-user -u admin -e admin@example.com`,
	RunE: createUser,
}

func init() {
	createUserCmd.Flags().StringVarP(&createUserCmdFlags.Username, "username", "u", "", "Username of the new account")
	createUserCmd.Flags().StringVarP(&createUserCmdFlags.Email, "email", "e", "", "Email of the new account")
	createUserCmd.Flags().StringVarP(&createUserCmdFlags.Password, "password", "p", "", "Password of the new account (default: $NEUROFIT_CREATE_USER_PASSWORD)")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(createUserCmd)
}

func createUser(cmd *cobra.Command, _ []string) error {
	password := createUserCmdFlags.Password
	if password == "" {
		password = os.Getenv("NEUROFIT_CREATE_USER_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("a password is required, use --password or NEUROFIT_CREATE_USER_PASSWORD")
	}

	cfg := loadConfig()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	user, err := account.New(db).Register(cmd.Context(), createUserCmdFlags.Username, createUserCmdFlags.Email, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("User created", "id", user.ID, "username", user.Username, "admin", cfg.IsAdmin(user.Username))
	return nil
}
