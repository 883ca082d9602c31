// Package dnd5eapi imports SRD potions from dnd5eapi.co as item sheets.
package dnd5eapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/data"
	"gopkg.in/yaml.v3"
)

const BaseURL = "https://www.dnd5eapi.co"

// ErrNotPotion is returned when a magic item is not in the potion category.
var ErrNotPotion = errors.New("magic item is not a potion")

type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient talks to baseURL, or to BaseURL when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type APIReference struct {
	Index string `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type APIListResponse struct {
	Count   int            `json:"count"`
	Results []APIReference `json:"results"`
}

// MagicItem is the subset of the SRD magic item record the importer reads.
type MagicItem struct {
	Index             string       `json:"index"`
	Name              string       `json:"name"`
	EquipmentCategory APIReference `json:"equipment_category"`
	Rarity            struct {
		Name string `json:"name"`
	} `json:"rarity"`
	Desc []string `json:"desc"`
}

// IsPotion reports whether the item sits in the SRD potion category.
func (m *MagicItem) IsPotion() bool {
	return m.EquipmentCategory.Index == "potion"
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// FetchList lists an endpoint such as "magic-items".
func (c *Client) FetchList(ctx context.Context, endpoint string) (*APIListResponse, error) {
	var list APIListResponse
	if err := c.get(ctx, fmt.Sprintf("/api/2014/%s", endpoint), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// FetchMagicItem reads one magic item by its API url.
func (c *Client) FetchMagicItem(ctx context.Context, url string) (*MagicItem, error) {
	var item MagicItem
	if err := c.get(ctx, url, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DefaultToxicity is the starting toxicity for an imported potion by rarity.
func DefaultToxicity(rarity string) int {
	switch strings.ToLower(rarity) {
	case "common":
		return 1
	case "uncommon":
		return 2
	case "rare":
		return 3
	case "very rare":
		return 4
	case "legendary", "artifact":
		return 5
	}
	return 1
}

// ToItem converts a potion into an item sheet. A toxicity of zero or less
// picks DefaultToxicity for the rarity.
func ToItem(m *MagicItem, toxicity int) (*data.Item, error) {
	if !m.IsPotion() {
		return nil, fmt.Errorf("%s: %w", m.Name, ErrNotPotion)
	}
	if toxicity <= 0 {
		toxicity = DefaultToxicity(m.Rarity.Name)
	}
	return &data.Item{
		Index:          m.Index,
		Name:           m.Name,
		Type:           "consumable",
		ConsumableType: "potion",
		Toxicity:       toxicity,
	}, nil
}

// SaveItem writes the item to <dataDir>/items/<index>.yaml. Existing files
// are kept unless force is set, so GM edits survive a re-import. It reports
// whether the file was written.
func SaveItem(dataDir string, item *data.Item, force bool) (bool, error) {
	path := filepath.Join(dataDir, "items", fmt.Sprintf("%s.yaml", data.Slug(item.Index)))
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}

	out, err := yaml.Marshal(item)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return false, fmt.Errorf("failed to save %s: %w", path, err)
	}
	return true, nil
}
