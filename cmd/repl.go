package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl [world_name] [campaign_name]",
	Short: "Start the interactive REPL shell",
	Long: `Starts the read-eval-print loop for issuing toxicity commands.
Usage:
	> consume by: Elara item: Potion of Healing
	> consume by: Elara toxicity: 3
	> rest by: Elara type: long
	> status by: Elara
	> set by: Elara value: 0
	> roll by: Elara dice: 1d10`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := resolveCampaign(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		app, closeAll, err := openSession(ctx, target)
		if err != nil {
			cancel()
			fmt.Printf("Failed to bootstrap session: %v\n", err)
			os.Exit(1)
		}
		defer closeAll()
		defer cancel()

		fmt.Printf("Starting REPL for '%s/%s'...\nType 'exit' or 'quit' to leave.\n\n", target.worldDir, target.campaign)

		maybeStartBot(ctx, app, target)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return
			}

			res, err := app.Execute(ctx, line)
			for _, l := range res.Lines() {
				fmt.Println(l)
			}
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Printf("Error reading input: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	addCampaignFlags(replCmd)
}
