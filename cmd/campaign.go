package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/config"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/persistence"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// campaignCmd represents the campaign command
var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaign journals and toxicity ledgers",
	Long: `The campaign command creates and inspects the per-campaign folders
that hold the event journal, the rules settings and the ledger database.

Use subcommands 'create' and 'load'.`,
}

func init() {
	rootCmd.AddCommand(campaignCmd)

	campaignCmd.PersistentFlags().StringP("world_dir", "w", "", "Location of the world directory (can be relative or absolute path)")
	campaignCmd.PersistentFlags().StringP("campaign_dir", "c", "", "Name of the campaign directory inside the world directory")
}

// campaignTarget is a resolved world directory and campaign name.
type campaignTarget struct {
	worldDir string
	campaign string
	manager  *persistence.CampaignManager
}

func (t campaignTarget) root() string {
	return t.manager.GetCampaignPath("", t.campaign)
}

// resolveCampaign reads [world_name] [campaign_name] or the --world_dir and
// --campaign_dir flags, falling back to worlds_dir from viper.
func resolveCampaign(cmd *cobra.Command, args []string) (campaignTarget, error) {
	worldDir, _ := cmd.Flags().GetString("world_dir")
	campaignDir, _ := cmd.Flags().GetString("campaign_dir")

	worldName := ""
	campaignName := ""
	if len(args) >= 1 {
		worldName = args[0]
	}
	if len(args) >= 2 {
		campaignName = args[1]
	}

	if worldDir == "" {
		if worldName == "" {
			return campaignTarget{}, fmt.Errorf("must specify either [world_name] argument or --world_dir flag")
		}
		worldsDir := viper.GetString("worlds_dir")
		if worldsDir == "" {
			worldsDir = "./worlds"
		}
		worldDir = filepath.Join(worldsDir, worldName)
	}

	if campaignDir == "" {
		if campaignName == "" {
			return campaignTarget{}, fmt.Errorf("must specify either [campaign_name] argument or --campaign_dir flag")
		}
		campaignDir = campaignName
	}

	return campaignTarget{
		worldDir: worldDir,
		campaign: campaignDir,
		manager:  persistence.NewCampaignManager(worldDir),
	}, nil
}

// openSession wires journal, settings, ledger and dice for a campaign. The
// returned func closes everything it opened.
func openSession(ctx context.Context, t campaignTarget) (*session.Session, func(), error) {
	journal, err := t.manager.Load("", t.campaign)
	if err != nil {
		return nil, nil, err
	}

	settings, err := config.Load(filepath.Join(t.root(), config.FileName))
	if err != nil {
		journal.Close()
		return nil, nil, err
	}

	dsn := viper.GetString("ledger_dsn")
	if dsn == "" {
		dsn = t.manager.GetLedgerDSN("", t.campaign)
	}
	ledger, err := persistence.OpenLedger(ctx, dsn)
	if err != nil {
		journal.Close()
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	var rng engine.RandomSource = engine.NewRoller()
	if seed := viper.GetInt64("seed"); seed != 0 {
		rng = engine.NewSeededRoller(seed)
	}

	app, err := session.NewSession(journal, session.Options{
		// Campaign data shadows world data.
		DataDirs: []string{t.root(), t.worldDir},
		Settings: settings,
		Ledger:   ledger,
		Random:   rng,
		Logger:   log.New(os.Stderr, "toxicity: ", log.LstdFlags),
	})
	if err != nil {
		journal.Close()
		ledger.Close()
		return nil, nil, fmt.Errorf("failed to bootstrap session: %w", err)
	}

	return app, func() {
		app.Close()
		ledger.Close()
	}, nil
}

// runLine executes one DSL command against a campaign and prints the result.
func runLine(cmd *cobra.Command, args []string, line string) {
	target, err := resolveCampaign(cmd, args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, closeAll, err := openSession(ctx, target)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer closeAll()

	res, err := app.Execute(ctx, line)
	for _, l := range res.Lines() {
		fmt.Println(l)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		closeAll()
		os.Exit(1)
	}
}

func addCampaignFlags(c *cobra.Command) {
	c.Flags().StringP("world_dir", "w", "", "Location of the world directory (can be relative or absolute path)")
	c.Flags().StringP("campaign_dir", "c", "", "Name of the campaign directory inside the world directory")
}
