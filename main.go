package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Jvsin/tank-agent-ai/agent"
	"github.com/Jvsin/tank-agent-ai/config"
	"github.com/Jvsin/tank-agent-ai/corridor"
	"github.com/Jvsin/tank-agent-ai/ipc"
	"github.com/Jvsin/tank-agent-ai/logging"
	"github.com/Jvsin/tank-agent-ai/model"
	"github.com/Jvsin/tank-agent-ai/store"
	"github.com/Jvsin/tank-agent-ai/telemetry"
)

const banner = `
 _____  _    _   _ _  __
|_   _|/ \  | \ | | |/ /
  | | / _ \ |  \| | ' /
  | |/ ___ \| |\  | . \
  |_/_/   \_\_| \_|_|\_\

Fuzzy Tank Agent`

// deps are the process-wide collaborators shared by every connection.
type deps struct {
	cfg      agent.Config
	terrain  *model.TerrainGrid
	recorder agent.Recorder
	sink     agent.DecisionSink
}

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	configErr := config.Load(*configDir)

	var graylog string
	if config.GetBool("graylog.enabled") {
		graylog = config.GetString("graylog.address")
	}
	if _, err := logging.Setup(logging.Options{Level: config.GetString("logLevel"), GraylogAddress: graylog}); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}

	fmt.Println(banner)

	if configErr != nil {
		slog.Warn("using default configuration", "dir", *configDir, "error", configErr)
	}

	d, cleanup, err := setup()
	if err != nil {
		cleanup()
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	network := config.GetString("listen.network")
	address := config.GetString("listen.address")

	if network == "unix" {
		// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
		if err := os.RemoveAll(address); err != nil {
			slog.Error("failed to clean up socket", "path", address, "error", err)
			os.Exit(1)
		}
		defer os.Remove(address)
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		slog.Error("failed to listen", "network", network, "address", address, "error", err)
		os.Exit(1)
	}
	defer listener.Close()

	slog.Info("listening", "network", network, "address", address)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			go handleConn(conn, d)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

// setup loads the optional map, store and telemetry sink.
func setup() (deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	ac, err := config.Agent()
	if err != nil {
		return deps{}, cleanup, err
	}
	d := deps{
		cfg: agent.Config{
			CellSize:       ac.CellSize,
			SearchRadius:   ac.SearchRadius,
			ReplanCooldown: ac.ReplanCooldown,
			StatusEvery:    ac.StatusEvery,
			VisionRange:    ac.VisionRange,
			ArrivalRadius:  ac.ArrivalRadius,
			FireThreshold:  ac.FireThreshold,
			Seed:           ac.Seed,
		},
		sink: telemetry.Nop{},
	}

	if path := config.GetString("map.path"); path != "" {
		grid, err := loadMap(path, d.cfg.CellSize)
		if err != nil {
			return deps{}, cleanup, err
		}
		d.terrain = grid
		slog.Info("map loaded", "path", path, "cols", grid.Cols, "rows", grid.Rows)
	}

	if config.GetBool("store.enabled") {
		s, err := store.Open(config.GetString("store.path"))
		if err != nil {
			return deps{}, cleanup, err
		}
		closers = append(closers, func() { s.Close() })
		d.recorder = s
		slog.Info("match results enabled", "path", config.GetString("store.path"))
	}

	ic, err := config.Influx()
	if err != nil {
		return deps{}, cleanup, err
	}
	if ic.Enabled {
		sink := telemetry.NewInflux(telemetry.Options{URL: ic.URL, Token: ic.Token, Org: ic.Org, Bucket: ic.Bucket})
		closers = append(closers, sink.Close)
		d.sink = sink
	}

	return d, cleanup, nil
}

// loadMap reads the fallback terrain and checks it has a corridor row.
func loadMap(path string, cellSize float64) (*model.TerrainGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	grid, err := model.LoadTerrainCSV(f, cellSize)
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", path, err)
	}
	if _, err := corridor.Generate(grid.SafetyMask(), 1, corridor.DefaultStride); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return grid, nil
}

func handleConn(conn net.Conn, d deps) {
	session := uuid.NewString()
	logger := slog.Default().With("session", session)
	logger.Info("new connection accepted", "remote", conn.RemoteAddr())

	opts := []agent.Option{
		agent.WithSession(session),
		agent.WithLogger(logger),
		agent.WithDecisionSink(d.sink),
	}
	if d.terrain != nil {
		opts = append(opts, agent.WithTerrain(d.terrain))
	}
	if d.recorder != nil {
		opts = append(opts, agent.WithRecorder(d.recorder))
	}

	a, err := agent.New(d.cfg, opts...)
	if err != nil {
		logger.Error("failed to create agent", "error", err)
		conn.Close()
		return
	}

	c := ipc.NewConnection(conn, a.Handlers())
	c.Logger = logger
	c.IdleTimeout = config.GetDuration("listen.idleTimeout")
	c.ReadLoop()
}
