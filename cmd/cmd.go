package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/USA-RedDragon/contract-relay/internal/db"
	"github.com/USA-RedDragon/contract-relay/internal/events"
	"github.com/USA-RedDragon/contract-relay/internal/metrics"
	"github.com/USA-RedDragon/contract-relay/internal/privy"
	"github.com/USA-RedDragon/contract-relay/internal/server"
	"github.com/USA-RedDragon/contract-relay/internal/websocket"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"golang.org/x/sync/errgroup"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contract-relay",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd)
	cmd.AddCommand(newReadCommand(), newWriteCommand())
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	slog.Info("contract-relay", "version", cmd.Annotations["version"], "commit", cmd.Annotations["commit"])

	config, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	signer, err := privy.NewClient(config.Privy.AppID, config.Privy.AppSecret, config.Privy.SignerPrivateKey, privy.WithAPIURL(config.Privy.APIURL))
	if err != nil {
		return fmt.Errorf("failed to create Privy client: %w", err)
	}

	var verifier *privy.TokenVerifier
	if config.Privy.VerificationKey != "" {
		verifier, err = privy.NewTokenVerifier(config.Privy.AppID, config.Privy.VerificationKey)
		if err != nil {
			return fmt.Errorf("failed to create token verifier: %w", err)
		}
		slog.Info("Access tokens are required for writes")
	}

	hub := websocket.NewHub()
	sinks := []events.Sink{hub}
	if config.Redis.Enabled {
		redis := connectRedis(config)
		defer redis.Close()
		sinks = append(sinks, events.NewRedisSink(redis, config.Redis.Channel))
	}

	if config.NATS.Enabled {
		natsConn, err := nats.Connect(config.NATS.URL, nats.Name("contract-relay"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsConn.Close()
		sinks = append(sinks, events.NewNATSSink(natsConn, config.NATS.Subject))
	}

	db, err := db.MakeDB(config)
	if err != nil {
		return fmt.Errorf("failed to make database: %w", err)
	}
	slog.Info("Database connection established")

	ethClient, err := contract.Dial(cmd.Context(), config.Chain.RPCURL)
	if err != nil {
		return err
	}
	defer ethClient.Close()
	address, err := contract.ParseAddress(config.Contract.Address)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	publisher := events.NewPublisher(bus, sinks...)
	go publisher.Start()

	slog.Info("Starting HTTP server")
	server := server.NewServer(config, server.Dependencies{
		DB:       db,
		Signer:   signer,
		Reader:   contract.NewReader(ethClient, address),
		Metrics:  metrics.NewMetrics(prometheus.DefaultRegisterer),
		Events:   bus,
		Hub:      hub,
		Verifier: verifier,
	})
	err = server.Start()
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	stop := func(_ os.Signal) {
		slog.Info("Shutting down")

		errGrp := errgroup.Group{}

		errGrp.Go(func() error {
			return server.Stop()
		})

		err := errGrp.Wait()
		if err != nil {
			slog.Error("Shutdown error", "error", err.Error())
		}
		// Handlers are done, flush what they emitted
		publisher.Stop()
		hub.Close()
		slog.Info("Shutdown complete")
	}

	if cmd.Annotations["version"] == "testing" {
		doneChannel := make(chan struct{})
		go func() {
			slog.Info("Sleeping for 5 seconds")
			time.Sleep(5 * time.Second)
			slog.Info("Sending SIGTERM")
			stop(syscall.SIGTERM)
			doneChannel <- struct{}{}
		}()
		<-doneChannel
	} else {
		shutdown.AddWithParam(stop)
		shutdown.Listen(syscall.SIGINT, syscall.SIGKILL, syscall.SIGTERM, syscall.SIGQUIT)
	}

	return nil
}

func connectRedis(config *config.Config) *redis.Client {
	if config.Redis.Sentinel.Enabled {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       config.Redis.Sentinel.MasterName,
			SentinelAddrs:    config.Redis.Sentinel.Addresses,
			SentinelUsername: config.Redis.Sentinel.Username,
			SentinelPassword: config.Redis.Sentinel.Password,
			Password:         config.Redis.Password,
			Username:         config.Redis.Username,
			DB:               config.Redis.Database,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     config.Redis.Address,
		Username: config.Redis.Username,
		Password: config.Redis.Password,
		DB:       config.Redis.Database,
	})
}
