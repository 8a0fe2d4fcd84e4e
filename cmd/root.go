package cmd

import (
	"fmt"
	"os"

	"croquis-cli/config"

	"github.com/spf13/cobra"
)

const appName = "croquis"

var (
	cfg config.Config

	apiFlag   string
	tokenFlag string
	eventFlag int64

	buildVersion = "dev"
	buildCommit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Venue layout editor for the events API",
	Long: `Edit the seating layout ("croquis") of an event from the terminal:
drag areas around, add areas and seats, mark areas for deletion and save
everything back to the API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if apiFlag != "" {
			cfg.APIURL = apiFlag
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor(eventFlag)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of croquis",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionString())
	},
}

func versionString() string {
	out := fmt.Sprintf("%s %s", appName, buildVersion)
	if buildCommit != "none" && buildCommit != "" {
		out += fmt.Sprintf(" (%s)", buildCommit)
	}
	return out
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "API base URL (default $CROQUIS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (default $CROQUIS_TOKEN, then the saved session)")
	rootCmd.PersistentFlags().Int64Var(&eventFlag, "event", 0, "open this event directly instead of the picker")
	rootCmd.AddCommand(editCmd, showCmd, loginCmd, logoutCmd, serveCmd, versionCmd)
}

// Execute runs the root command. version and commit are set at build time.
func Execute(version, commit string) {
	buildVersion = version
	buildCommit = commit
	rootCmd.Version = versionString()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
