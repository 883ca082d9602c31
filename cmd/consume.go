package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume [world_name] [campaign_name]",
	Short: "Record a character consuming a potion",
	Long: `Adds the toxicity of an item (or a raw amount) to a character's ledger
and resolves an overflow check when the total passes the level limit.

Either --item or --toxicity is required.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor, _ := cmd.Flags().GetString("actor")
		item, _ := cmd.Flags().GetString("item")
		amount, _ := cmd.Flags().GetInt("toxicity")

		line := fmt.Sprintf("consume by: %s", actor)
		switch {
		case item != "":
			line += " item: " + item
		case cmd.Flags().Changed("toxicity"):
			line += fmt.Sprintf(" toxicity: %d", amount)
		default:
			fmt.Println("Error: either --item or --toxicity is required")
			os.Exit(1)
		}
		runLine(cmd, args, line)
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
	addCampaignFlags(consumeCmd)
	consumeCmd.Flags().StringP("actor", "a", "", "character consuming the item")
	consumeCmd.Flags().StringP("item", "i", "", "item name, looked up in items/")
	consumeCmd.Flags().IntP("toxicity", "t", 0, "raw toxicity amount instead of an item")
	_ = consumeCmd.MarkFlagRequired("actor")
}
