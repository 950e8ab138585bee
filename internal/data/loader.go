// Package data loads the game config: maps with their roads, buildings,
// offices and loot types, plus the global simulation parameters. JSON is the
// native format; YAML files with the same schema are accepted too.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dogpark/server/internal/model"
)

// LootType is the front-end metadata for one loot type. Echoed verbatim in
// map responses; the simulation only cares about Value.
type LootType struct {
	Name     string   `json:"name" yaml:"name"`
	File     string   `json:"file,omitempty" yaml:"file"`
	Type     string   `json:"type,omitempty" yaml:"type"`
	Rotation *int     `json:"rotation,omitempty" yaml:"rotation"`
	Color    string   `json:"color,omitempty" yaml:"color"`
	Scale    *float64 `json:"scale,omitempty" yaml:"scale"`
	Value    int      `json:"value" yaml:"value"`
}

// Extra keeps the per-map loot-type metadata for map responses, keyed by
// map id.
type Extra map[string][]LootType

type gameFile struct {
	DefaultDogSpeed     *float64     `json:"defaultDogSpeed" yaml:"defaultDogSpeed"`
	DefaultBagCapacity  *int         `json:"defaultBagCapacity" yaml:"defaultBagCapacity"`
	LootGeneratorConfig *lootGenFile `json:"lootGeneratorConfig" yaml:"lootGeneratorConfig"`
	DogRetirementTime   *float64     `json:"dogRetirementTime" yaml:"dogRetirementTime"`
	Maps                []mapFile    `json:"maps" yaml:"maps"`
}

type lootGenFile struct {
	Period      float64 `json:"period" yaml:"period"` // seconds
	Probability float64 `json:"probability" yaml:"probability"`
}

type mapFile struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	DogSpeed    *float64       `json:"dogSpeed" yaml:"dogSpeed"`
	BagCapacity *int           `json:"bagCapacity" yaml:"bagCapacity"`
	Roads       []roadFile     `json:"roads" yaml:"roads"`
	Buildings   []buildingFile `json:"buildings" yaml:"buildings"`
	Offices     []officeFile   `json:"offices" yaml:"offices"`
	LootTypes   []LootType     `json:"lootTypes" yaml:"lootTypes"`
}

type roadFile struct {
	X0 int  `json:"x0" yaml:"x0"`
	Y0 int  `json:"y0" yaml:"y0"`
	X1 *int  `json:"x1,omitempty" yaml:"x1"`
	Y1 *int  `json:"y1,omitempty" yaml:"y1"`
}

type buildingFile struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

type officeFile struct {
	ID      string `json:"id" yaml:"id"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
	OffsetX int    `json:"offsetX" yaml:"offsetX"`
	OffsetY int    `json:"offsetY" yaml:"offsetY"`
}

// LoadGame reads the config file and builds the immutable game model plus
// the loot-type metadata for map responses.
func LoadGame(path string) (*model.Game, Extra, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read game config %s: %w", path, err)
	}

	var cfg gameFile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		err = json.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse game config %s: %w", path, err)
	}

	game := model.NewGame()
	if cfg.DefaultDogSpeed != nil {
		game.SetDefaultSpeed(*cfg.DefaultDogSpeed)
	}
	if cfg.DefaultBagCapacity != nil {
		game.SetDefaultBagCapacity(*cfg.DefaultBagCapacity)
	}
	if cfg.LootGeneratorConfig != nil {
		game.SetLootConfig(model.LootGeneratorConfig{
			Period:      time.Duration(cfg.LootGeneratorConfig.Period * float64(time.Second)),
			Probability: cfg.LootGeneratorConfig.Probability,
		})
	}
	if cfg.DogRetirementTime != nil {
		game.SetRetireAfter(time.Duration(*cfg.DogRetirementTime * float64(time.Second)))
	}

	extra := make(Extra, len(cfg.Maps))
	for _, mf := range cfg.Maps {
		m, err := buildMap(game, mf)
		if err != nil {
			return nil, nil, err
		}
		if err := game.AddMap(m); err != nil {
			return nil, nil, err
		}
		extra[mf.ID] = mf.LootTypes
	}
	return game, extra, nil
}

func buildMap(game *model.Game, mf mapFile) (*model.Map, error) {
	if mf.ID == "" {
		return nil, fmt.Errorf("map without an id")
	}
	if len(mf.Roads) == 0 {
		return nil, fmt.Errorf("map %q has no roads", mf.ID)
	}

	m := model.NewMap(mf.ID, mf.Name)
	if mf.DogSpeed != nil {
		m.SetDogSpeed(*mf.DogSpeed)
	} else {
		m.SetDogSpeed(game.DefaultSpeed())
	}
	if mf.BagCapacity != nil {
		m.SetBagCapacity(*mf.BagCapacity)
	} else {
		m.SetBagCapacity(game.DefaultBagCapacity())
	}

	values := make([]int, len(mf.LootTypes))
	for i, lt := range mf.LootTypes {
		values[i] = lt.Value
	}
	m.SetLootValues(values)

	for _, rf := range mf.Roads {
		switch {
		case rf.X1 != nil:
			m.AddRoad(model.NewHorizontalRoad(model.Point{X: rf.X0, Y: rf.Y0}, *rf.X1))
		case rf.Y1 != nil:
			m.AddRoad(model.NewVerticalRoad(model.Point{X: rf.X0, Y: rf.Y0}, *rf.Y1))
		default:
			return nil, fmt.Errorf("map %q: road at (%d,%d) has neither x1 nor y1", mf.ID, rf.X0, rf.Y0)
		}
	}
	for _, bf := range mf.Buildings {
		m.AddBuilding(model.Building{Bounds: model.Rectangle{
			Position: model.Point{X: bf.X, Y: bf.Y},
			Size:     model.Size{Width: bf.W, Height: bf.H},
		}})
	}
	for _, of := range mf.Offices {
		err := m.AddOffice(model.Office{
			ID:       of.ID,
			Position: model.Point{X: of.X, Y: of.Y},
			Offset:   model.Offset{DX: of.OffsetX, DY: of.OffsetY},
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
