package telegram

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the per-campaign chat configuration.
const ConfigFile = "telegram.yaml"

// CampaignConfig binds a campaign to a group chat and its players.
type CampaignConfig struct {
	ChatID string            `yaml:"chat_id"`
	Users  map[string]string `yaml:"users"` // telegram user id -> character name
}

// LoadCampaignConfig reads telegram.yaml from a campaign directory. A missing
// file yields an empty config.
func LoadCampaignConfig(campaignPath string) (*CampaignConfig, error) {
	cfg := &CampaignConfig{Users: make(map[string]string)}

	f, err := os.Open(filepath.Join(campaignPath, ConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ConfigFile, err)
	}
	if cfg.Users == nil {
		cfg.Users = make(map[string]string)
	}
	return cfg, nil
}

// Save writes telegram.yaml into the campaign directory.
func (c *CampaignConfig) Save(campaignPath string) error {
	f, err := os.Create(filepath.Join(campaignPath, ConfigFile))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", ConfigFile, err)
	}
	defer f.Close()
	return yaml.NewEncoder(f).Encode(c)
}

// Chat parses the chat id; ok is false when none is configured.
func (c *CampaignConfig) Chat() (id int64, ok bool, err error) {
	if c.ChatID == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(c.ChatID, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid chat_id %q: %w", c.ChatID, err)
	}
	return id, true, nil
}

// UserMap parses the user ids, skipping malformed ones.
func (c *CampaignConfig) UserMap() map[int64]string {
	userMap := make(map[int64]string)
	for idStr, actor := range c.Users {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err == nil {
			userMap[id] = actor
		}
	}
	return userMap
}
