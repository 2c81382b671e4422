package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/voicewire/voicewire/audio"
	"github.com/voicewire/voicewire/config"
	"github.com/voicewire/voicewire/events"
	"github.com/voicewire/voicewire/session"
)

func main() {
	app := &cli.App{
		Name:  "voicewire",
		Usage: "real-time voice conversation client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "stream a PCM16 WAV `FILE` instead of the microphone",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging",
			},
			&cli.BoolFlag{
				Name:  "show-events",
				Usage: "print correlated event groups as they arrive",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "voices",
				Usage:  "list selectable voices",
				Action: listVoices,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listVoices(*cli.Context) error {
	ids := make([]string, 0, len(config.Voices))
	for id := range config.Voices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("%-10s %s\n", id, config.Voices[id])
	}
	return nil
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Infof("🚀 voicewire starting (server %s, voice %s)", cfg.ServerURL, cfg.VoiceID)

	var device audio.InputDevice
	captureRate := cfg.CaptureRate
	if path := c.String("file"); path != "" {
		// File replay is already at the protocol input rate.
		captureRate = audio.InputRate
		device = audio.NewFileInput(path, captureRate, log)
	} else {
		device = audio.NewSoxInput(captureRate, audio.DefaultCaptureOptions, log)
	}

	sess := session.New(session.Options{
		ServerURL:          cfg.ServerURL,
		VoiceID:            cfg.VoiceID,
		SystemPrompt:       cfg.SystemPrompt,
		IncludeChatHistory: cfg.IncludeChatHistory,
		WriteTimeout:       cfg.WriteTimeout,
		Capture:            audio.NewPipeline(device, captureRate, log),
		Player:             audio.NewEngine(&audio.SoxOpener{Log: log}, log),
		Log:                log,
	})

	sess.OnTurnUpdate = func(t session.Turn) {
		if t.Content == "" {
			return
		}
		if t.Role == events.RoleAssistant && events.IsInterruptionMarker(t.Content) {
			return
		}
		fmt.Printf("[%s] %s\n", t.Role, t.Content)
	}
	sess.OnAlert = func(a *session.Alert) {
		if a == nil {
			return
		}
		fmt.Printf("(%s) %s\n", a.Type, a.Message)
		if a.OffersRestart {
			fmt.Println("(restart with the same command to continue)")
		}
	}
	if c.Bool("show-events") {
		sess.OnGroup = func(g *events.Group) {
			log.Debugf("event %s %s x%d", g.Direction, g.Name, g.Count)
		}
	}
	ended := make(chan struct{}, 1)
	sess.OnStatus = func(st session.Status) {
		if st == session.StatusDisconnected {
			select {
			case ended <- struct{}{}:
			default:
			}
		}
	}

	mgr := session.NewManager(cfg, sess, log)
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	fmt.Println("🎙️  conversation started, press Ctrl-C to end")

	select {
	case <-ctx.Done():
		mgr.End()
	case <-ended:
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}
