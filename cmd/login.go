package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"croquis-cli/auth"
	"croquis-cli/service"
	"croquis-cli/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(loginEmail)
		if email == "" {
			prompt := promptui.Prompt{
				Label:    "Email",
				Validate: validateEmail,
			}
			value, err := prompt.Run()
			if err != nil {
				return err
			}
			email = strings.TrimSpace(value)
		}

		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("password is required")
				}
				return nil
			},
		}
		password, err := passwordPrompt.Run()
		if err != nil {
			return err
		}

		client := service.NewClient(nil, service.Options{BaseURL: cfg.APIURL, Timeout: cfg.HTTPTimeout, Rate: cfg.Rate})
		resp, err := client.Login(context.Background(), email, password)
		if err != nil {
			return errors.New(service.UserMessage(err))
		}
		if err := store.SaveSession(store.Session{Token: resp.Token, Email: email, SavedAt: time.Now()}); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		fmt.Printf("Signed in as %s.\n", email)
		if claims, err := auth.Inspect(resp.Token); err == nil {
			if !claims.ExpiresAt.IsZero() {
				fmt.Printf("Session valid until %s.\n", claims.ExpiresAt.Local().Format(time.DateTime))
			}
			if !claims.IsAdmin() {
				fmt.Println("This account is not an administrator; layout changes will be refused.")
			}
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.ClearSession(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func validateEmail(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(input, "@") {
		return errors.New("invalid email")
	}
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
}
