package persistence

import (
	"fmt"
	"os"
	"path/filepath"
)

// CampaignManager maps world/campaign names onto directories under WorldsDir.
type CampaignManager struct {
	WorldsDir string
}

// NewCampaignManager returns manager localized to the specified workspace setting directory.
func NewCampaignManager(worldsDir string) *CampaignManager {
	return &CampaignManager{WorldsDir: worldsDir}
}

// GetCampaignPath produces safe joined absolute dir paths.
func (c *CampaignManager) GetCampaignPath(world, campaign string) string {
	return filepath.Join(c.WorldsDir, world, campaign)
}

// GetLedgerDSN is the sqlite ledger kept alongside a campaign's journal.
func (c *CampaignManager) GetLedgerDSN(world, campaign string) string {
	return "sqlite://" + filepath.Join(c.GetCampaignPath(world, campaign), "ledger.db")
}

// Create lays out the campaign directories and opens a fresh journal.
func (c *CampaignManager) Create(world, campaign string) (*Journal, error) {
	path := c.GetCampaignPath(world, campaign)

	dirs := []string{
		path,
		filepath.Join(path, "characters"),
		filepath.Join(path, "items"),
		filepath.Join(path, "tables"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return NewJournal(filepath.Join(path, "log.jsonl"))
}

// Load opens the journal of an existing campaign.
func (c *CampaignManager) Load(world, campaign string) (*Journal, error) {
	path := c.GetCampaignPath(world, campaign)
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("campaign target folder not properly found: %s", path)
	}

	return NewJournal(filepath.Join(path, "log.jsonl"))
}
