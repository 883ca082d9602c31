package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/dnd5eapi"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [world_name] [campaign_name]",
	Short: "Import SRD potions from dnd5eapi as item sheets",
	Long: `Fetches the SRD magic items from dnd5eapi.co, keeps the potions and writes
them to the campaign's items/ folder with a toxicity value. Without
--toxicity each potion starts from a rarity-based default; existing
files are left alone unless --force is set.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := resolveCampaign(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		toxicity, _ := cmd.Flags().GetInt("toxicity")
		force, _ := cmd.Flags().GetBool("force")
		baseURL, _ := cmd.Flags().GetString("api")

		ctx := context.Background()
		client := dnd5eapi.NewClient(baseURL)

		list, err := client.FetchList(ctx, "magic-items")
		if err != nil {
			fmt.Printf("Error fetching magic items: %v\n", err)
			os.Exit(1)
		}

		bar := progressbar.Default(int64(len(list.Results)), "Importing potions")
		written := 0
		for _, ref := range list.Results {
			// Throttle to respect the API
			time.Sleep(100 * time.Millisecond)

			mi, err := client.FetchMagicItem(ctx, ref.URL)
			if err != nil {
				fmt.Printf("\nFailed to fetch %s: %v\n", ref.Index, err)
				_ = bar.Add(1)
				continue
			}
			item, err := dnd5eapi.ToItem(mi, toxicity)
			if errors.Is(err, dnd5eapi.ErrNotPotion) {
				_ = bar.Add(1)
				continue
			}
			ok, err := dnd5eapi.SaveItem(target.root(), item, force)
			if err != nil {
				fmt.Printf("\nFailed to save %s: %v\n", ref.Index, err)
			}
			if ok {
				written++
			}
			_ = bar.Add(1)
		}

		fmt.Printf("\nImported %d potions into %s/items\n", written, target.root())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	addCampaignFlags(importCmd)
	importCmd.Flags().Int("toxicity", 0, "toxicity for every imported potion (0 = by rarity)")
	importCmd.Flags().Bool("force", false, "overwrite existing item files")
	importCmd.Flags().String("api", dnd5eapi.BaseURL, "dnd5eapi base URL")
}
