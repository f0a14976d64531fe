package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ruslanvt/call-transcriber/internal/config"
	"github.com/ruslanvt/call-transcriber/internal/fetch"
	"github.com/ruslanvt/call-transcriber/internal/media"
	"github.com/ruslanvt/call-transcriber/internal/pipeline"
	"github.com/ruslanvt/call-transcriber/internal/recognizer"
	"github.com/ruslanvt/call-transcriber/internal/server"
	"github.com/ruslanvt/call-transcriber/internal/transcript"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.Parse()

	// .env is optional; the config file is the source of truth.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	transcoder := media.NewTranscoder(cfg.Media.FFmpegPath)
	if err := transcoder.Probe(); err != nil {
		log.Fatalf("Startup check failed: %v", err)
	}

	rec, err := newRecognizer(cfg)
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}
	defer rec.Close()

	composer := transcript.NewComposer(
		transcript.KeywordClassifier{Trigger: cfg.Transcript.TriggerWord},
		cfg.Transcript.RaisedVoiceThreshold,
	)

	p := pipeline.New(
		pipeline.Config{
			ScratchDir:   cfg.Fetch.ScratchDir,
			Backend:      cfg.Recognizer.Backend,
			EmptyOnError: cfg.Recognizer.EmptyOnError,
		},
		fetch.NewFetcher(),
		transcoder,
		rec,
		composer,
		log,
	)

	srv, err := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		OutputDir:       cfg.Transcription.OutputDir,
		SaveTranscripts: cfg.Transcription.SaveTranscripts,
	}, p, log)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}
}

func newRecognizer(cfg *config.Config) (recognizer.Recognizer, error) {
	switch cfg.Recognizer.Backend {
	case "vosk":
		return recognizer.NewVosk(cfg.Recognizer.ModelPath)
	case "vosk-server":
		return recognizer.NewServer(cfg.Recognizer.ServerURL), nil
	default:
		return nil, fmt.Errorf("unknown recognizer backend: %s", cfg.Recognizer.Backend)
	}
}
