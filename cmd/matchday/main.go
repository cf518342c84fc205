package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openleague/matchday/pkg/broker"
	"github.com/openleague/matchday/pkg/config"
	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/handlers"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
	"github.com/openleague/matchday/pkg/publisher"
	"github.com/openleague/matchday/pkg/queue"
	"github.com/openleague/matchday/pkg/reconciler"
	"github.com/openleague/matchday/pkg/registry"
	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/subscriber"
	"github.com/openleague/matchday/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "matchday",
	Short: "Matchday - event propagation core for league services",
	Long: `Matchday moves domain facts (match completions, tournament status
changes) between independently deployed league services and maintains the
derived state they imply: standings, team locks and local caches.

It pairs a live broadcast channel with a durable priority work queue, so
critical events survive restarts while advisory ones stay cheap.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Matchday version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(workCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(deadLettersCmd)
}

// loadConfig reads the --config file or falls back to defaults
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func initLogging(cfg *config.Config) {
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
}

func scoringRules(cfg *config.Config) standings.Rules {
	return standings.Rules{
		WinPoints:  cfg.Scoring.Win,
		DrawPoints: cfg.Scoring.Draw,
		LossPoints: cfg.Scoring.Loss,
	}
}

// buildRegistry constructs every handler instance once at process start
func buildRegistry(cfg *config.Config, store storage.Store, emitter handlers.Emitter) *registry.Registry {
	rules := scoringRules(cfg)
	reg := registry.NewRegistry()
	reg.Register(handlers.NewMatchCompleted(store, emitter, rules))
	reg.Register(handlers.NewTournamentStatus(store, rules, cfg.CacheTTL()))
	reg.Register(handlers.NewEntityCreated(store, cfg.CacheTTL()))
	reg.Register(handlers.NewStandingsUpdated(store))
	return reg
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the channel listener",
	Long: `Run the long-lived subscriber loop: connect to the pub/sub transport,
deserialize inbound envelopes and route them through the handler registry.
Lost connections reconnect with a fixed backoff until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cfg)
		metrics.SetVersion(Version)

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()
		metrics.RegisterProbe("store", store.Ping)

		q, err := queue.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer q.Close()
		metrics.RegisterProbe("queue", q.Ping)

		// The listener keeps its own transport namespace so event traffic
		// never competes with general cache or queue connections
		b := broker.NewBroker()
		b.Start()
		defer b.Stop()
		metrics.RegisterProbe("broker", b.Ping)

		pub := publisher.NewPublisher(b, publisher.Config{
			Service:    cfg.Service,
			Attempts:   cfg.Publisher.Attempts,
			RetryDelay: cfg.PublishRetryDelay(),
		})
		disp := queue.NewDispatcher(q, cfg.Service)
		emitter := handlers.NewFanoutEmitter(pub, disp, cfg.Queue.Base)

		reg := buildRegistry(cfg, store, emitter)

		channels := cfg.Subscriber.Channels
		if len(channels) == 0 {
			channels = reg.Channels()
		}

		sub := subscriber.New(subscriber.NewBrokerTransport(b), subscriber.Config{
			Channels: channels,
			Backoff:  cfg.SubscriberBackoff(),
			Handler: func(evt *event.Envelope, channel string) {
				// Direct-listen path: failures are contained and logged,
				// never crash the loop
				_ = reg.Dispatch(evt)
			},
		})
		metrics.RegisterProbe("subscriber", func() error {
			if sub.IsRunning() {
				return nil
			}
			return fmt.Errorf("subscriber stopped")
		})

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.HandleFunc("/health", metrics.HealthHandler())
			mux.HandleFunc("/ready", metrics.ReadyHandler())
			mux.HandleFunc("/live", metrics.LivenessHandler())
			go func() {
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					log.Errorf("metrics server stopped", err)
				}
			}()
		}

		// Stop the listener on SIGINT/SIGTERM
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info("shutting down listener")
			sub.Stop()
		}()

		listenLogger := log.WithComponent("listen")
		listenLogger.Info().
			Strs("channels", channels).
			Str("service", cfg.Service).
			Msg("listener starting")
		sub.Run()
		return nil
	},
}

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run the priority queue worker pool",
	Long: `Pull jobs off the durable priority queues and dispatch their envelopes
through the handler registry. Failed jobs are retried with backoff up to the
envelope's max_retries, then dead-lettered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cfg)

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		q, err := queue.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer q.Close()

		b := broker.NewBroker()
		b.Start()
		defer b.Stop()

		pub := publisher.NewPublisher(b, publisher.Config{
			Service:    cfg.Service,
			Attempts:   cfg.Publisher.Attempts,
			RetryDelay: cfg.PublishRetryDelay(),
		})
		disp := queue.NewDispatcher(q, cfg.Service)
		emitter := handlers.NewFanoutEmitter(pub, disp, cfg.Queue.Base)

		reg := buildRegistry(cfg, store, emitter)

		worker := queue.NewWorker(q, reg, queue.WorkerConfig{
			Queues:      queue.Names(cfg.Queue.Base),
			Concurrency: cfg.Queue.Workers,
			RetryDelay:  cfg.QueueRetryDelay(),
		})

		collector := metrics.NewCollector(q)
		collector.Start()
		defer collector.Stop()

		rec := reconciler.NewReconciler(store, scoringRules(cfg), 10*time.Minute)
		rec.Start()
		defer rec.Stop()

		worker.Start()
		workLogger := log.WithComponent("work")
		workLogger.Info().
			Int("workers", cfg.Queue.Workers).
			Strs("queues", queue.Names(cfg.Queue.Base)).
			Msg("worker pool started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down workers")
		worker.Stop()
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <event-type>",
	Short: "Dispatch an event onto the durable priority queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cfg)

		payloadJSON, _ := cmd.Flags().GetString("payload")
		priority, _ := cmd.Flags().GetString("priority")

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return fmt.Errorf("invalid payload JSON: %w", err)
		}

		q, err := queue.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer q.Close()

		disp := queue.NewDispatcher(q, cfg.Service)
		id := disp.Dispatch(cfg.Queue.Base, payload, args[0], types.ParsePriority(priority), 0)
		if id == "" {
			return fmt.Errorf("event not dispatched")
		}

		fmt.Printf("Dispatched %s\n", args[0])
		fmt.Printf("  Event ID: %s\n", id)
		fmt.Printf("  Queue: %s\n", queue.Name(cfg.Queue.Base, types.ParsePriority(priority)))
		return nil
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings <tournament-id>",
	Short: "Print the derived standings table for a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cfg)

		var tournamentID int64
		if _, err := fmt.Sscanf(args[0], "%d", &tournamentID); err != nil {
			return fmt.Errorf("invalid tournament id: %s", args[0])
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		table, err := store.ListStandings(tournamentID)
		if err != nil {
			return err
		}
		if len(table) == 0 {
			fmt.Printf("No standings for tournament %d\n", tournamentID)
			return nil
		}

		fmt.Printf("%-4s %-8s %3s %3s %3s %3s %4s %4s %4s %4s\n",
			"POS", "TEAM", "P", "W", "D", "L", "GF", "GA", "GD", "PTS")
		for _, row := range table {
			fmt.Printf("%-4d %-8d %3d %3d %3d %3d %4d %4d %+4d %4d\n",
				row.Position, row.TeamID, row.Played, row.Won, row.Drawn,
				row.Lost, row.GoalsFor, row.GoalsAgainst,
				row.GoalDifference(), row.Points)
		}
		return nil
	},
}

var deadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogging(cfg)

		q, err := queue.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer q.Close()

		jobs, err := q.ListDeadLetters()
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No dead-lettered jobs")
			return nil
		}

		for _, job := range jobs {
			fmt.Printf("%s  %s  attempts=%d  %s\n",
				job.ID, job.Envelope.EventType, job.Attempts, job.LastError)
		}
		return nil
	},
}

func init() {
	listenCmd.Flags().String("metrics-addr", "", "Address for the metrics/health HTTP endpoint (empty disables)")
	publishCmd.Flags().String("payload", "{}", "Event payload as JSON")
	publishCmd.Flags().String("priority", "normal", "Queue priority (high/normal/low)")
}
