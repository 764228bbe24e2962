package main

import (
	"fmt"

	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/rs/zerolog/log"
)

// loadCatalog reads the minigame catalog from path, or the embedded default
// when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		log.Info().Msg("using embedded minigame catalog")
		return catalog.Default(), nil
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("minigames", len(cat.All())).Msg("loaded minigame catalog")
	return cat, nil
}
