package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"croquis-cli/auth"
	"croquis-cli/service"
	"croquis-cli/store"
	"croquis-cli/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [event-id]",
	Short: "Open the layout editor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID := eventFlag
		if len(args) == 1 {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			eventID = id
		}
		return runEditor(eventID)
	},
}

func runEditor(eventID int64) error {
	if eventID == 0 {
		eventID = cfg.EventID
	}

	if cfg.DebugLog != "" {
		f, err := tea.LogToFile(cfg.DebugLog, "croquis")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	token, err := resolveToken()
	if err != nil {
		return err
	}
	notice, err := sessionNotice(token, time.Now())
	if err != nil {
		return err
	}

	client := newClient(token)
	log.Printf("editor start: api=%s event=%d", client.BaseURL(), eventID)

	program := tea.NewProgram(
		tui.New(tui.Options{Client: client, EventID: eventID, Notice: notice}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = program.Run()
	return err
}

// resolveToken picks the bearer token: flag, then environment, then the
// session saved by login.
func resolveToken() (string, error) {
	if tokenFlag != "" {
		return tokenFlag, nil
	}
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	session, err := store.LoadSession()
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return session.Token, nil
}

// sessionNotice checks the token before any request is sent. An expired
// token is an error; anything else only earns a warning.
func sessionNotice(token string, now time.Time) (string, error) {
	claims, err := auth.Check(token, now)
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return "Not signed in. Run `croquis login` if the API requires a token.", nil
	case errors.Is(err, auth.ErrTokenExpired):
		return "", fmt.Errorf("session expired at %s, run `croquis login`", claims.ExpiresAt.Local().Format(time.DateTime))
	case err != nil:
		log.Printf("inspect token: %v", err)
		return "The token could not be decoded; its expiry was not checked.", nil
	}
	if !claims.IsAdmin() {
		return "Signed in without the administrator role; saving will be refused.", nil
	}
	return "", nil
}

func newClient(token string) *service.Client {
	return service.NewClient(nil, service.Options{
		BaseURL: cfg.APIURL,
		Token:   token,
		Timeout: cfg.HTTPTimeout,
		Rate:    cfg.Rate,
	})
}
