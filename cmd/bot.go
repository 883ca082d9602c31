package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/session"
	"github.com/gearstra/vtt-potion-toxicity-5e/internal/telegram"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	botToken    string
	tgChatID    string
	tgUserPairs []string
)

// botCmd represents the bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage global bot configurations",
}

// telegramBotCmd stores the bot token in the global config.
var telegramBotCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Register a global Telegram bot",
	Run: func(cmd *cobra.Command, args []string) {
		if botToken == "" {
			fmt.Println("Create a bot with @BotFather (/newbot) and paste the HTTP API token it gives you.")
			fmt.Print("token: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				botToken = strings.TrimSpace(scanner.Text())
			}
		}
		if botToken == "" {
			return
		}

		viper.Set("telegram_token", botToken)
		err := viper.WriteConfig()
		if err != nil {
			err = viper.SafeWriteConfig()
			if err != nil {
				home, _ := os.UserHomeDir()
				err = viper.WriteConfigAs(filepath.Join(home, ".toxicity.yaml"))
			}
		}
		if err != nil {
			fmt.Printf("Error saving configuration: %v\n", err)
			return
		}
		fmt.Println("Telegram bot token saved successfully.")
	},
}

// campaignTelegramCmd binds a campaign to a group chat and maps players to characters.
var campaignTelegramCmd = &cobra.Command{
	Use:   "telegram [world_name] [campaign_name]",
	Short: "Connect a campaign to a Telegram group",
	Long: `Writes telegram.yaml in the campaign directory. Players in the group can
then send /consume item: <item>, /rest, /status for the character they
are mapped to while a REPL for the campaign is running.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := resolveCampaign(cmd, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if _, err := os.Stat(target.root()); os.IsNotExist(err) {
			fmt.Printf("Error: campaign directory %s does not exist. Run 'campaign create' first.\n", target.root())
			os.Exit(1)
		}

		cfg, err := telegram.LoadCampaignConfig(target.root())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if tgChatID != "" {
			cfg.ChatID = tgChatID
		}
		for _, pair := range tgUserPairs {
			name, userID, ok := strings.Cut(pair, ":")
			if !ok {
				fmt.Printf("Warning: invalid user pair format '%s'. Expected 'character:user_id'\n", pair)
				continue
			}
			cfg.Users[userID] = name
		}

		if err := cfg.Save(target.root()); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Telegram campaign configuration saved to %s\n", filepath.Join(target.root(), telegram.ConfigFile))
	},
}

// maybeStartBot relays the campaign's group chat while the REPL runs.
func maybeStartBot(ctx context.Context, app *session.Session, t campaignTarget) {
	token := viper.GetString("telegram_token")
	if token == "" {
		return
	}
	cfg, err := telegram.LoadCampaignConfig(t.root())
	if err != nil {
		fmt.Printf("[Telegram Bot] %v\n", err)
		return
	}
	chatID, ok, err := cfg.Chat()
	if !ok || err != nil {
		return
	}

	bot := telegram.NewBot(telegram.NewClient(token), chatID, cfg.UserMap(), app, log.New(os.Stderr, "telegram: ", log.LstdFlags))
	go bot.Start(ctx)
	fmt.Printf("[Telegram Bot] Active for chat %d\n", chatID)
}

func init() {
	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(telegramBotCmd)
	telegramBotCmd.Flags().StringVarP(&botToken, "token", "t", "", "Telegram bot API token")

	campaignCmd.AddCommand(campaignTelegramCmd)
	campaignTelegramCmd.Flags().StringVar(&tgChatID, "chat_id", "", "Telegram group chat ID")
	campaignTelegramCmd.Flags().StringSliceVarP(&tgUserPairs, "user", "u", []string{}, "Map a character to a Telegram user id (format: character:user_id)")
}
