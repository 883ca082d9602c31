package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Estimate how often each overflow tier comes up",
	Long: `Rolls many overflow checks and prints the share of each severity tier.

The excess is either given directly with --excess or derived from
--level, --current and --toxicity against the configured limits.
Use --settings to point at a campaign's settings.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		settingsPath, _ := cmd.Flags().GetString("settings")
		trials, _ := cmd.Flags().GetInt("trials")
		excess, _ := cmd.Flags().GetInt("excess")
		level, _ := cmd.Flags().GetInt("level")
		current, _ := cmd.Flags().GetInt("current")
		toxicity, _ := cmd.Flags().GetInt("toxicity")

		settings := config.Default()
		if settingsPath != "" {
			var err error
			settings, err = config.Load(filepath.Clean(settingsPath))
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}
		cfg, err := settings.EngineConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if !cmd.Flags().Changed("excess") {
			limit, err := cfg.Thresholds.Limit(level)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			excess = current + toxicity - limit
			if excess <= 0 {
				fmt.Printf("%d + %d stays within the level %d limit of %d; no overflow.\n", current, toxicity, level, limit)
				return
			}
		}

		eng, err := engine.NewOverflowEngine(cfg.Severity)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		var rng engine.RandomSource = engine.NewRoller()
		if seed := viper.GetInt64("seed"); seed != 0 {
			rng = engine.NewSeededRoller(seed)
		}

		bar := progressbar.Default(int64(trials), "Rolling overflow checks")
		counts, err := eng.Simulate(excess, trials, rng, func() { _ = bar.Add(1) })
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		_ = bar.Finish()

		fmt.Printf("\n%s + %d over %d trials:\n", engine.OverflowDie, excess, trials)
		for _, c := range counts {
			share := 100 * float64(c.Count) / float64(trials)
			fmt.Printf("  %-6s %-24s %6.2f%%\n", c.Tier.Range(), c.Tier.Label, share)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("settings", "", "settings.yaml to read limits and tiers from")
	simulateCmd.Flags().Int("trials", 10000, "number of overflow checks to roll")
	simulateCmd.Flags().Int("excess", 1, "toxicity above the limit")
	simulateCmd.Flags().Int("level", 1, "character level, used when --excess is not set")
	simulateCmd.Flags().Int("current", 0, "toxicity before the consumption, used when --excess is not set")
	simulateCmd.Flags().Int("toxicity", 0, "toxicity of the consumed item, used when --excess is not set")
}
