package main

import (
	"github.com/mcdev12/questline/go/internal/auth"
	"github.com/mcdev12/questline/go/internal/catalog"
	"github.com/mcdev12/questline/go/internal/config"
	"github.com/mcdev12/questline/go/internal/outbox"
	outboxdb "github.com/mcdev12/questline/go/internal/outbox/db"
	"github.com/mcdev12/questline/go/internal/rewards"
	fakeprofilerepo "github.com/mcdev12/questline/go/internal/rewards/repofake"
	"github.com/mcdev12/questline/go/internal/session"
	sessiondb "github.com/mcdev12/questline/go/internal/session/db"
	fakesessionrepo "github.com/mcdev12/questline/go/internal/session/repofake"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Sessions *session.Service
	Verifier *auth.Verifier
}

func setupServices(cfg *config.Server, cat *catalog.Catalog) (*Services, func(), error) {
	// Database layer → Repository layer → App layer → Service layer
	var (
		sessionRepo session.SessionRepository
		profileRepo rewards.ProfileRepository
		opts        []session.Option
		cleanup     = func() {}
	)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store; sessions are lost on restart")
		sessionRepo = fakesessionrepo.NewFakeSessionRepo()
		profileRepo = fakeprofilerepo.NewFakeProfileRepo()

	default:
		database, err := setupDatabase(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("close database")
			}
		}

		sessionRepo = session.NewRepository(sessiondb.New(database))
		profileRepo = rewards.NewRepository(database)
		if cfg.EmitEvents {
			outboxApp := outbox.NewApp(outbox.NewRepository(outboxdb.New(database)))
			opts = append(opts, session.WithOutbox(outboxApp))
		}
	}

	rewardsApp := rewards.NewApp(profileRepo, cat)
	sessionApp := session.NewApp(sessionRepo, cat, rewardsApp, opts...)

	return &Services{
		Sessions: session.NewService(sessionApp),
		Verifier: auth.NewVerifier(cfg.JWTSecret),
	}, cleanup, nil
}
