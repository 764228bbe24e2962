package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	minigamev1 "github.com/mcdev12/questline/go/internal/api/minigame/v1"
	"github.com/mcdev12/questline/go/internal/api/minigame/v1/minigamev1connect"
	"github.com/mcdev12/questline/go/internal/auth"
	"github.com/mcdev12/questline/go/internal/config"
	"github.com/mcdev12/questline/go/internal/poller"
)

func main() {
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", "http://localhost:8080", "session service base URL")
		minigameID = flag.String("minigame", "M1", "minigame to poll")
		token      = flag.String("token", os.Getenv("SESSION_TOKEN"), "bearer token")
		userID     = flag.String("user", "", "mint a token for this user with JWT_SECRET instead of -token")
		start      = flag.Bool("start", false, "start or resume the session before polling")
		interval   = flag.Duration("interval", poller.DefaultInterval, "poll interval")
	)
	flag.Parse()

	if err := config.SetupLogging(os.Getenv("LOG_LEVEL")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *userID != "" {
		signed, err := auth.NewVerifier(os.Getenv("JWT_SECRET")).Sign(*userID, time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("mint token")
		}
		*token = signed
	}
	if *token == "" {
		log.Fatal().Msg("a -token or -user is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := minigamev1connect.NewSessionServiceClient(http.DefaultClient, *addr,
		connect.WithInterceptors(auth.NewBearerInterceptor(*token)))

	usesTries, err := hasTries(ctx, client, *minigameID)
	if err != nil {
		log.Fatal().Err(err).Msg("list minigames")
	}

	if *start {
		if _, err := client.StartSession(ctx, connect.NewRequest(&minigamev1.StartSessionRequest{MinigameID: *minigameID})); err != nil {
			log.Fatal().Err(err).Msg("start session")
		}
	}

	opts := []poller.Option{
		poller.WithInterval(*interval),
		poller.OnUpdate(func(s minigamev1.SessionState) {
			line := fmt.Sprintf("%s  %s", s.MinigameID, poller.Format(s.RemainingSeconds))
			if usesTries {
				line += fmt.Sprintf("  tries %d", s.TriesLeft)
			}
			if s.Completed {
				line += fmt.Sprintf("  completed, score %d", s.Score)
			}
			fmt.Printf("\r%-48s", line)
		}),
		poller.OnTimeUp(func(minigamev1.SessionState) {
			fmt.Println("\ntime is up: this attempt has ended")
		}),
		poller.OnOutOfTries(func(minigamev1.SessionState) {
			fmt.Println("\nno tries left: this attempt has ended")
		}),
	}
	if usesTries {
		opts = append(opts, poller.WithTries())
	}

	if err := poller.New(client, *minigameID, opts...).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("poller stopped")
	}
	fmt.Println()
}

func hasTries(ctx context.Context, client minigamev1connect.SessionServiceClient, minigameID string) (bool, error) {
	resp, err := client.ListMinigames(ctx, connect.NewRequest(&minigamev1.ListMinigamesRequest{}))
	if err != nil {
		return false, err
	}
	for _, mg := range resp.Msg.Minigames {
		if mg.MinigameID == minigameID {
			return mg.TriesBudget > 0, nil
		}
	}
	return false, fmt.Errorf("unknown minigame %q", minigameID)
}
