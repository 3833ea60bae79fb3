package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordduel/internal/app"
	"wordduel/internal/apperr"
	"wordduel/internal/config"
	"wordduel/internal/reconcile"
	"wordduel/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	create := flag.Bool("create", false, "create a new game")
	length := flag.Int("length", 6, "word length for a new game (5-8)")
	join := flag.String("join", "", "room id or shared link to join")
	watch := flag.String("watch", "", "room id or shared link to resume watching")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize client")
	}
	defer a.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Reconciler.OnView(func(v reconcile.View) {
		fmt.Println()
		fmt.Print(view.Board(v))
		fmt.Println(view.StatusLine(v))
	})
	a.Reconciler.OnNotice(func(n reconcile.Notice) {
		switch n.Type {
		case reconcile.NoticeOpponentJoined:
			fmt.Println(">> An opponent joined your game!")
		case reconcile.NoticeGameFinished:
			fmt.Print(view.GameOver(n))
		}
	})

	roomID, err := resolveRoom(ctx, a, *create, *length, *join, *watch)
	if err != nil {
		log.Fatal().Err(err).Msg("start game")
	}
	if err := a.WatchRoom(ctx, roomID); err != nil {
		log.Fatal().Err(err).Msg("watch room")
	}

	runInputLoop(ctx, a, roomID)
}

func resolveRoom(ctx context.Context, a *app.App, create bool, length int, join, watch string) (string, error) {
	switch {
	case create:
		if !a.Reconciler.BeginCreate() {
			return "", fmt.Errorf("a create is already in flight")
		}
		defer a.Reconciler.EndCreate()
		res, err := a.Client.CreateGame(ctx, length)
		if err != nil {
			return "", err
		}
		fmt.Printf("Created game %s (word length %d)\n", res.RoomID, res.WordLength)
		fmt.Printf("Share this link: %s\n", view.ShareLink(a.Cfg.Server.URL, res.RoomID))
		return res.RoomID, nil
	case join != "":
		roomID, err := app.RoomIDFromLink(join)
		if err != nil {
			return "", err
		}
		if _, err := a.Client.JoinGame(ctx, roomID); err != nil {
			return "", err
		}
		fmt.Printf("Joined game %s\n", roomID)
		return roomID, nil
	case watch != "":
		return app.RoomIDFromLink(watch)
	default:
		return "", fmt.Errorf("one of -create, -join or -watch is required")
	}
}

func runInputLoop(ctx context.Context, a *app.App, roomID string) {
	fmt.Println("Commands: reveal <row> <col> | guess <word> | skip | state | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "reveal":
			if len(fields) != 3 {
				fmt.Println("usage: reveal <row> <col>")
				continue
			}
			row, err1 := strconv.Atoi(fields[1])
			col, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("usage: reveal <row> <col>")
				continue
			}
			if _, err := a.Client.RevealCell(ctx, roomID, row, col); err != nil {
				reportError(err)
			}
		case "guess":
			if len(fields) != 2 {
				fmt.Println("usage: guess <word>")
				continue
			}
			res, err := a.Client.ValidateGuess(ctx, roomID, fields[1])
			if err != nil {
				reportError(err)
				continue
			}
			if !res.Correct {
				fmt.Println("Wrong guess, the turn passes.")
			}
		case "skip":
			if _, err := a.Client.SkipTurn(ctx, roomID); err != nil {
				reportError(err)
			}
		case "state":
			snap, err := a.Client.GetGameState(ctx, roomID)
			if err != nil {
				reportError(err)
				continue
			}
			a.Reconciler.Apply(snap)
		case "quit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func reportError(err error) {
	fmt.Printf("!! %s\n", apperr.UserMessage(err))
}
