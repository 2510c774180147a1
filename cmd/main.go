package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goserg/rankings/internal/config"
	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/logger"
	sqlite3 "github.com/goserg/rankings/internal/migrate"
	"github.com/goserg/rankings/internal/service"
	"github.com/goserg/rankings/internal/storage/redisqueue"
	"github.com/goserg/rankings/internal/storage/sqlite"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/sirupsen/logrus"
)

var CLI struct {
	Config string `help:"Path to the toml config." default:"configs/server.toml" type:"path"`
	Debug  bool   `help:"Enable trace logging."`

	Migrate struct{} `cmd:"" help:"Apply database migrations and print the schema version."`

	CreateRanking struct {
		Name           string        `arg:"" help:"Ranking name."`
		Teams          int           `help:"Teams per match." default:"2"`
		PlayersPerTeam int           `help:"Maximum players per team." default:"1"`
		Mu             float64       `help:"Initial mu." default:"50"`
		Sigma          float64       `help:"Initial sigma." default:"16.666666666666668"`
		Queue          bool          `help:"Enable the matchmaking queue." default:"true" negatable:""`
		Challenges     bool          `help:"Enable direct challenges." default:"true" negatable:""`
		BestOf         int           `help:"Default series length." default:"1"`
		RematchWindow  time.Duration `help:"How long a rematch can be requested after a match." default:"10m"`
	} `cmd:"" help:"Create a ranking."`

	Rankings struct{} `cmd:"" help:"List rankings."`

	Leaderboard struct {
		Ranking uuid.UUID `arg:"" help:"Ranking id."`
	} `cmd:"" help:"Print the leaderboard of a ranking."`

	Rescore struct {
		Ranking uuid.UUID `arg:"" help:"Ranking id."`
	} `cmd:"" help:"Recompute every rating of a ranking from its match history."`

	Join struct {
		Ranking uuid.UUID `arg:"" help:"Ranking id."`
		User    string    `arg:"" help:"User id."`
		Name    string    `help:"Display name for a new player."`
	} `cmd:"" help:"Put a user in the queue."`

	Leave struct {
		Ranking uuid.UUID `arg:"" help:"Ranking id."`
		User    string    `arg:"" help:"User id."`
	} `cmd:"" help:"Remove a user from the queue."`

	Matchmake struct {
		Ranking  uuid.UUID `arg:"" help:"Ranking id."`
		Location string    `help:"Where match threads are opened." default:"cli"`
	} `cmd:"" help:"Start a match from the front of the queue."`

	Score struct {
		Match   uuid.UUID `arg:"" help:"Match id."`
		Outcome []float64 `arg:"" help:"Score per team, higher is better."`
	} `cmd:"" help:"Record the result of a match."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("rankings"),
		kong.Description("rating and match lifecycle engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))
	if err := run(kctx.Command()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.New(CLI.Config)
	if err != nil {
		return err
	}
	l := logger.New(cfg.Server.LogLevel, cfg.Server.Debug || CLI.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(l, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []service.Option{service.WithFlushConcurrency(cfg.Rescore.FlushConcurrency)}
	if cfg.Queue.Backend == config.QueueBackendRedis {
		queue, err := redisqueue.New(ctx, l, cfg.Queue)
		if err != nil {
			return err
		}
		defer queue.Close()
		opts = append(opts, service.WithQueue(queue))
	}
	svc := service.New(l, store, opts...)

	switch command {
	case "migrate":
		version, dirty, err := sqlite3.Version(store.DB())
		if err != nil {
			return err
		}
		l.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("database migrated")
		return nil
	case "create-ranking <name>":
		c := CLI.CreateRanking
		ranking, err := svc.CreateRanking(ctx, domain.Ranking{
			Name:           c.Name,
			TeamsPerMatch:  c.Teams,
			PlayersPerTeam: c.PlayersPerTeam,
			InitialRating:  domain.Rating{Mu: c.Mu, Sigma: c.Sigma},
			Matchmaking: domain.MatchmakingSettings{
				QueueEnabled:           c.Queue,
				DirectChallengeEnabled: c.Challenges,
				DefaultBestOf:          c.BestOf,
				RematchWindow:          c.RematchWindow,
			},
		})
		if err != nil {
			return err
		}
		return printJSON(ranking)
	case "rankings":
		rankings, err := svc.ListRankings(ctx)
		if err != nil {
			return err
		}
		return printJSON(rankings)
	case "leaderboard <ranking>":
		entries, err := svc.Leaderboard(ctx, CLI.Leaderboard.Ranking)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%3d  %-24s %7.2f  (mu %.2f, sigma %.2f)\n", e.Rank, e.Name, e.Score, e.Rating.Mu, e.Rating.Sigma)
		}
		return nil
	case "rescore <ranking>":
		ratings, err := svc.Rescore(ctx, CLI.Rescore.Ranking, opt.None[time.Time](), nil)
		if err != nil {
			return err
		}
		l.WithField("players", len(ratings)).Info("rescore finished")
		return nil
	case "join <ranking> <user>":
		team, added, err := svc.JoinQueue(ctx, CLI.Join.Ranking, service.Participant{UserID: CLI.Join.User, Name: CLI.Join.Name})
		if err != nil {
			return err
		}
		if !added {
			l.WithField("team", team.ID).Info("team is already queued")
		}
		return printJSON(team)
	case "leave <ranking> <user>":
		removed, err := svc.LeaveQueue(ctx, CLI.Leave.Ranking, CLI.Leave.User)
		if err != nil {
			return err
		}
		l.WithField("removed", removed).Info("left queue")
		return nil
	case "matchmake <ranking>":
		found, err := svc.FindMatchFromQueue(ctx, CLI.Matchmake.Ranking, CLI.Matchmake.Location)
		if err != nil {
			return err
		}
		if opt.IsNone(found) {
			l.Info("not enough teams in the queue")
			return nil
		}
		return printJSON(found.Value.Match)
	case "score <match> <outcome>":
		match, err := svc.ScoreMatch(ctx, CLI.Score.Match, CLI.Score.Outcome, time.Now())
		if err != nil {
			return err
		}
		return printJSON(match)
	}
	return fmt.Errorf("unknown command %q", command)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
