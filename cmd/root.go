package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "toxicity",
	Short: "Potion toxicity tracker for D&D 5e tables",
	Long: `Tracks how much potion toxicity each character has accumulated,
compares it against a level-based limit and resolves overflow checks
(1d10 + excess) into status effects, poison damage and narration.

Campaigns live under worlds/<world>/<campaign> with a JSONL journal,
a settings.yaml and characters/, items/ and tables/ data folders.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.toxicity.yaml)")
	rootCmd.PersistentFlags().String("worlds_dir", "", "directory holding all worlds (default ./worlds)")
	rootCmd.PersistentFlags().String("ledger", "", "ledger DSN: memory, sqlite://path or postgres://... (default: sqlite file in the campaign)")
	rootCmd.PersistentFlags().Int64("seed", 0, "seed the dice for reproducible rolls (0 = random)")

	_ = viper.BindPFlag("worlds_dir", rootCmd.PersistentFlags().Lookup("worlds_dir"))
	_ = viper.BindPFlag("ledger_dsn", rootCmd.PersistentFlags().Lookup("ledger"))
	_ = viper.BindPFlag("seed", rootCmd.PersistentFlags().Lookup("seed"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".toxicity")
	}

	viper.SetEnvPrefix("toxicity")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
