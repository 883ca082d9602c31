package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [world_name] [campaign_name]",
	Short: "Show a character's toxicity against their limit",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor, _ := cmd.Flags().GetString("actor")
		runLine(cmd, args, fmt.Sprintf("status by: %s", actor))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addCampaignFlags(statusCmd)
	statusCmd.Flags().StringP("actor", "a", "", "character to inspect")
	_ = statusCmd.MarkFlagRequired("actor")
}
