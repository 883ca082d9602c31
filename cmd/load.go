package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load [world_name] [campaign_name]",
	Short: "Load a campaign and print every entity's toxicity",
	Long: `Replays the campaign journal through the projector and prints each
known entity with its toxicity, limit, hit points and conditions.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := resolveCampaign(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		app, closeAll, err := openSession(ctx, target)
		if err != nil {
			fmt.Printf("Error finding campaign: %v\n", err)
			os.Exit(1)
		}
		defer closeAll()

		state := app.State()
		ids := make([]string, 0, len(state.Entities))
		for id := range state.Entities {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Printf("Successfully loaded campaign!\n")
		fmt.Printf("Active Entities: %d\n", len(ids))
		for _, id := range ids {
			rep, err := app.Status(ctx, id)
			if err != nil {
				fmt.Printf("- %s: %v\n", id, err)
				continue
			}
			fmt.Printf("- %s\n", rep)
		}
	},
}

func init() {
	campaignCmd.AddCommand(loadCmd)
}
