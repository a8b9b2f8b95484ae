package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Campaign holds per-business settings: routing slug, sheet names and quote pricing.
type Campaign struct {
	Slug       string  `yaml:"slug"`
	Name       string  `yaml:"name"`
	AnchorZone string  `yaml:"anchor_zone"`
	Sheets     Sheets  `yaml:"sheets"`
	Pricing    Pricing `yaml:"pricing"`
}

// Sheets names the destination sheet of each record kind.
type Sheets struct {
	Calls  string `yaml:"calls"`
	Chats  string `yaml:"chats"`
	Visits string `yaml:"visits"`
}

// Pricing configures the event quote formula.
type Pricing struct {
	Base        int                `yaml:"base"`
	PerGuest    int                `yaml:"per_guest"`
	Multipliers map[string]float64 `yaml:"multipliers"`
}

// DefaultCampaign returns the Salon Ibargo campaign.
func DefaultCampaign() Campaign {
	return Campaign{
		Slug: "salon-ibargo",
		Name: "Salon Ibargo",
		Sheets: Sheets{
			Calls:  "Llamadas",
			Chats:  "Chats",
			Visits: "Citas",
		},
		Pricing: Pricing{
			Base:     5000,
			PerGuest: 350,
			Multipliers: map[string]float64{
				"boda":        1.2,
				"wedding":     1.2,
				"conferencia": 1.1,
				"corporativo": 1.1,
			},
		},
	}
}

// LoadCampaign reads a YAML campaign file. Fields left out keep their defaults.
func LoadCampaign(path string) (Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Campaign{}, fmt.Errorf("read campaign file: %w", err)
	}
	return ParseCampaign(data)
}

// ParseCampaign decodes campaign YAML on top of DefaultCampaign.
func ParseCampaign(data []byte) (Campaign, error) {
	c := DefaultCampaign()
	var overlay Campaign
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Campaign{}, fmt.Errorf("parse campaign file: %w", err)
	}

	if overlay.Slug != "" {
		c.Slug = overlay.Slug
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	c.AnchorZone = overlay.AnchorZone
	if overlay.Sheets.Calls != "" {
		c.Sheets.Calls = overlay.Sheets.Calls
	}
	if overlay.Sheets.Chats != "" {
		c.Sheets.Chats = overlay.Sheets.Chats
	}
	if overlay.Sheets.Visits != "" {
		c.Sheets.Visits = overlay.Sheets.Visits
	}
	if overlay.Pricing.Base > 0 {
		c.Pricing.Base = overlay.Pricing.Base
	}
	if overlay.Pricing.PerGuest > 0 {
		c.Pricing.PerGuest = overlay.Pricing.PerGuest
	}
	if len(overlay.Pricing.Multipliers) > 0 {
		c.Pricing.Multipliers = make(map[string]float64, len(overlay.Pricing.Multipliers))
		for k, v := range overlay.Pricing.Multipliers {
			c.Pricing.Multipliers[strings.ToLower(k)] = v
		}
	}

	if strings.ContainsAny(c.Slug, "/ ") {
		return Campaign{}, fmt.Errorf("invalid campaign slug %q", c.Slug)
	}
	return c, nil
}
