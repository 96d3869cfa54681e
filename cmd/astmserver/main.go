// Command astmserver runs the ASTM TCP listener together with its
// capture, LIMS-posting, and admin/metrics surfaces (SPEC_FULL.md §§4-6).
// Flag layout and graceful-shutdown handling are grounded on
// urmzd-homai/cmd/api/main.go; paired short/long flags follow
// doismellburning-samoyed/cmd/direwolf/main.go's use of spf13/pflag.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/senaite/astm-go/internal/adminapi"
	"github.com/senaite/astm-go/internal/astm/instrument"
	"github.com/senaite/astm-go/internal/astm/server"
	"github.com/senaite/astm-go/internal/capture"
	"github.com/senaite/astm-go/internal/config"
	"github.com/senaite/astm-go/internal/limsclient"
)

func main() {
	var (
		dbPath       = pflag.StringP("db", "b", "", "Path to configuration database (default: ~/.config/astm-go/astm-go.db)")
		listenHost   = pflag.StringP("listen", "l", "", "Override the active profile's listen host")
		listenPort   = pflag.IntP("port", "p", 0, "Override the active profile's listen port")
		outputDir    = pflag.StringP("output", "o", "", "Override the active profile's capture directory")
		limsURL      = pflag.StringP("url", "u", "", "Override the active profile's LIMS URL")
		consumerName = pflag.StringP("consumer", "c", "", "Override the active profile's LIMS consumer identifier")
		msgFormat    = pflag.StringP("message-format", "m", "", "Override the active profile's message format (lis2a|astm)")
		retries      = pflag.IntP("retries", "r", 0, "Override the active profile's LIMS retry count")
		delaySec     = pflag.IntP("delay", "d", 0, "Override the active profile's LIMS retry delay, in seconds")
		adminAddr    = pflag.String("admin-listen", ":8090", "Admin/metrics HTTP listen address")
		verbose      = pflag.BoolP("verbose", "v", false, "Verbose logging")
		logfile      = pflag.String("logfile", "", "Write logs to this file instead of stderr")
	)
	pflag.Parse()

	configureLogging(*verbose, *logfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open configuration database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close configuration database")
		}
	}()
	log.Info().Str("path", db.Path()).Msg("configuration database opened")

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate configuration database")
	}
	if needs, err := db.NeedsBootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to check bootstrap status")
	} else if needs {
		log.Info().Msg("first run detected, bootstrapping default profile")
		if err := db.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap configuration database")
		}
	}

	store := config.NewProfileStore(db)
	profile, err := store.GetActive(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load active profile")
	}
	applyOverrides(profile, *listenHost, *listenPort, *outputDir, *limsURL, *consumerName, *msgFormat, *retries, *delaySec*1000)

	log.Info().
		Str("profile", profile.Name).
		Str("listen_host", profile.ListenHost).
		Int("listen_port", profile.ListenPort).
		Str("consumer", profile.ConsumerName).
		Msg("configuration loaded")

	captureWriter, err := capture.NewWriter(profile.CaptureDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare capture directory")
	}

	var limsClient *limsclient.Client
	if profile.LIMSURL != "" {
		limsClient, err = limsclient.New(
			profile.LIMSURL,
			profile.LIMSRetries,
			time.Duration(profile.LIMSRetryDelayMS)*time.Millisecond,
			log.Logger,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build LIMS client")
		}
		if ok, err := limsClient.Auth(ctx); err != nil || !ok {
			log.Warn().Err(err).Msg("LIMS authentication check failed, continuing anyway")
		}
	}

	registry := instrument.DefaultRegistry()
	tracker := adminapi.NewSessionTracker()

	format := server.FormatLIS2A
	if profile.MessageFormat == "astm" {
		format = server.FormatASTM
	}

	transfers := make(chan *server.Transfer, 16)
	listenAddr := profile.ListenHost + ":" + strconv.Itoa(profile.ListenPort)
	srv := server.New(listenAddr, transfers, log.Logger,
		server.WithMessageFormat(format),
		server.WithSessionObserver(tracker),
	)

	go consumeTransfers(ctx, transfers, captureWriter, limsClient, tracker, profile.ConsumerName, format)

	router := adminapi.NewRouter(registry, tracker, log.Logger)
	go func() {
		log.Info().Str("address", *adminAddr).Msg("starting admin/metrics server")
		if err := router.Run(*adminAddr); err != nil {
			log.Error().Err(err).Msg("admin server stopped")
		}
	}()

	log.Info().Str("address", listenAddr).Msg("starting astm server")
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("astm server failed")
	}
	log.Info().Msg("shut down cleanly")
}

func consumeTransfers(
	ctx context.Context,
	transfers <-chan *server.Transfer,
	captureWriter *capture.Writer,
	limsClient *limsclient.Client,
	tracker *adminapi.SessionTracker,
	consumerName string,
	format server.MessageFormat,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case xfer, ok := <-transfers:
			if !ok {
				return
			}
			handleTransfer(ctx, xfer, captureWriter, limsClient, tracker, consumerName, format)
		}
	}
}

func handleTransfer(
	ctx context.Context,
	xfer *server.Transfer,
	captureWriter *capture.Writer,
	limsClient *limsclient.Client,
	tracker *adminapi.SessionTracker,
	consumerName string,
	format server.MessageFormat,
) {
	tracker.TransferCompleted(xfer.RemoteAddr)

	astmBlob := xfer.Flush.ASTM
	if path, err := captureWriter.Write(astmBlob); err != nil {
		log.Error().Err(err).Str("client", xfer.RemoteAddr).Msg("failed to capture transfer")
	} else {
		log.Info().Str("path", path).Str("client", xfer.RemoteAddr).Msg("transfer captured")
	}

	if limsClient == nil {
		return
	}

	payload := map[string]any{
		"consumer": consumerName,
		"messages": xfer.Payload(format),
	}
	if _, err := limsClient.Post(ctx, "push", payload); err != nil {
		log.Error().Err(err).Str("client", xfer.RemoteAddr).Msg("failed to post transfer to LIMS")
	}
}

func applyOverrides(p *config.Profile, host string, port int, outputDir, limsURL, consumer, format string, retries, delayMS int) {
	if host != "" {
		p.ListenHost = host
	}
	if port != 0 {
		p.ListenPort = port
	}
	if outputDir != "" {
		p.CaptureDir = outputDir
	}
	if limsURL != "" {
		p.LIMSURL = limsURL
	}
	if consumer != "" {
		p.ConsumerName = consumer
	}
	if format != "" {
		p.MessageFormat = format
	}
	if retries != 0 {
		p.LIMSRetries = retries
	}
	if delayMS != 0 {
		p.LIMSRetryDelayMS = delayMS
	}
}

func configureLogging(verbose bool, logfile string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	out := os.Stderr
	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.Logger = zerolog.New(f).With().Timestamp().Logger()
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return
		}
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
