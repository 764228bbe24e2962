// Package catalog holds the read-only per-minigame configuration: time budget,
// tries budget, base score and reward policy.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/mcdev12/questline/go/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed minigames.yaml
var defaultCatalog []byte

// Reward is the reward policy applied when a completed session is claimed.
type Reward struct {
	PointsMin int    `yaml:"points_min" json:"pointsMin"`
	PointsMax int    `yaml:"points_max" json:"pointsMax"`
	Item      string `yaml:"item" json:"item,omitempty"`
}

// Minigame is the static configuration of one minigame.
type Minigame struct {
	ID           models.MinigameID `yaml:"id" json:"minigameId"`
	TimerSeconds int               `yaml:"timer_seconds" json:"timerSeconds"`
	TriesBudget  int               `yaml:"tries_budget" json:"triesBudget"`
	BaseScore    int               `yaml:"base_score" json:"baseScore"`
	Reward       Reward            `yaml:"reward" json:"reward"`
}

// UsesTries reports whether the minigame defines a tries budget.
func (m Minigame) UsesTries() bool {
	return m.TriesBudget > 0
}

// Catalog is an immutable, ordered set of minigame configurations.
type Catalog struct {
	order []models.MinigameID
	byID  map[models.MinigameID]Minigame
}

type file struct {
	Minigames []Minigame `yaml:"minigames"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f.Minigames...)
}

// New builds a catalog from explicit entries, preserving their order.
func New(minigames ...Minigame) (*Catalog, error) {
	if len(minigames) == 0 {
		return nil, errors.New("catalog has no minigames")
	}

	c := &Catalog{
		order: make([]models.MinigameID, 0, len(minigames)),
		byID:  make(map[models.MinigameID]Minigame, len(minigames)),
	}
	for _, m := range minigames {
		if err := validate(m); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("minigame %s is defined twice", m.ID)
		}
		c.order = append(c.order, m.ID)
		c.byID[m.ID] = m
	}
	return c, nil
}

func validate(m Minigame) error {
	if m.ID == "" {
		return errors.New("minigame id is required")
	}
	if m.TimerSeconds <= 0 {
		return fmt.Errorf("minigame %s: timer_seconds must be positive", m.ID)
	}
	if m.TriesBudget < 0 {
		return fmt.Errorf("minigame %s: tries_budget cannot be negative", m.ID)
	}
	if m.BaseScore <= 0 {
		return fmt.Errorf("minigame %s: base_score must be positive", m.ID)
	}
	if m.Reward.PointsMin < 0 || m.Reward.PointsMax < m.Reward.PointsMin {
		return fmt.Errorf("minigame %s: invalid reward points range [%d, %d]", m.ID, m.Reward.PointsMin, m.Reward.PointsMax)
	}
	return nil
}

// Lookup returns the configuration for id.
func (c *Catalog) Lookup(id models.MinigameID) (Minigame, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// All returns every minigame in catalog order.
func (c *Catalog) All() []Minigame {
	out := make([]Minigame, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Index returns the catalog position of id, or -1.
func (c *Catalog) Index(id models.MinigameID) int {
	for i, candidate := range c.order {
		if candidate == id {
			return i
		}
	}
	return -1
}
