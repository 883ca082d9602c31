package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"

	"github.com/spf13/cobra"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [world_name] [campaign_name]",
	Short: "Create a new campaign in a world",
	Long: `Bootstraps a fresh append-only journal log.jsonl, a default settings.yaml
and the characters/, items/ and tables/ data directories under
worlds/<world_name>/<campaign_name>.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := resolveCampaign(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		journal, err := target.manager.Create("", target.campaign)
		if err != nil {
			fmt.Printf("Error creating campaign: %v\n", err)
			os.Exit(1)
		}
		defer journal.Close()

		settingsPath := filepath.Join(target.root(), config.FileName)
		if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
			if err := config.Default().Save(settingsPath); err != nil {
				fmt.Printf("Error writing settings: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("Successfully created campaign!\n")
		fmt.Printf("Journal stored at: %s\n", filepath.Join(target.root(), "log.jsonl"))
		fmt.Printf("Settings stored at: %s\n", settingsPath)
	},
}

func init() {
	campaignCmd.AddCommand(createCmd)
}
