package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest [world_name] [campaign_name]",
	Short: "Record a completed rest",
	Long:  `Ends timed effects on a long rest and resets toxicity when reset_on_long_rest is enabled. Short rests change nothing.`,
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor, _ := cmd.Flags().GetString("actor")
		short, _ := cmd.Flags().GetBool("short")

		kind := "long"
		if short {
			kind = "short"
		}
		runLine(cmd, args, fmt.Sprintf("rest by: %s type: %s", actor, kind))
	},
}

func init() {
	rootCmd.AddCommand(restCmd)
	addCampaignFlags(restCmd)
	restCmd.Flags().StringP("actor", "a", "", "character that rested")
	restCmd.Flags().Bool("short", false, "record a short rest instead of a long one")
	_ = restCmd.MarkFlagRequired("actor")
}
