package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Jvsin/tank-agent-ai/corridor"
	"github.com/Jvsin/tank-agent-ai/geometry"
	"github.com/Jvsin/tank-agent-ai/goal"
	"github.com/Jvsin/tank-agent-ai/ipc"
	"github.com/Jvsin/tank-agent-ai/model"
	"github.com/Jvsin/tank-agent-ai/motion"
	"github.com/Jvsin/tank-agent-ai/planner"
	"github.com/Jvsin/tank-agent-ai/turret"
	"github.com/Jvsin/tank-agent-ai/world"
)

// Mode is the navigation mode. An agent starts on its corridor and hands over
// to autonomous navigation once, never switching back.
type Mode int

const (
	Corridor Mode = iota
	Autonomous
)

func (m Mode) String() string {
	if m == Autonomous {
		return "autonomous"
	}
	return "corridor"
}

const (
	hazardDanger     = 2.0
	hazardDeadEndTTL = 600
	// Terrain closer than this share of a cell counts as standing on it.
	hazardReach = 0.8

	planFailureDeadEndTTL = 40
	fallbackSearchRadius  = 6
	maxEngageRisk         = 1.4

	// Pickups this many cells away are driven at directly.
	pickupReach = 1.5
)

// Config tunes one agent. Zero fields fall back to DefaultConfig.
type Config struct {
	CellSize       float64
	SearchRadius   int
	ReplanCooldown int
	StatusEvery    int
	VisionRange    float64
	ArrivalRadius  float64
	FireThreshold  float64
	Seed           int64
}

func DefaultConfig() Config {
	return Config{
		CellSize:       10,
		SearchRadius:   18,
		ReplanCooldown: 30,
		StatusEvery:    60,
		VisionRange:    turret.DefaultVisionRange,
		ArrivalRadius:  corridor.DefaultArrivalRadius,
		FireThreshold:  turret.DefaultFireThreshold,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CellSize <= 0 {
		c.CellSize = d.CellSize
	}
	if c.SearchRadius <= 0 {
		c.SearchRadius = d.SearchRadius
	}
	if c.ReplanCooldown <= 0 {
		c.ReplanCooldown = d.ReplanCooldown
	}
	if c.StatusEvery <= 0 {
		c.StatusEvery = d.StatusEvery
	}
	if c.VisionRange <= 0 {
		c.VisionRange = d.VisionRange
	}
	if c.ArrivalRadius <= 0 {
		c.ArrivalRadius = d.ArrivalRadius
	}
	if c.FireThreshold <= 0 {
		c.FireThreshold = d.FireThreshold
	}
	return c
}

// Recorder persists match outcomes.
type Recorder interface {
	RecordOutcome(ctx context.Context, o model.MatchOutcome) error
}

// DecisionSink receives one summary per answered tick. Implementations must
// not block.
type DecisionSink interface {
	WriteDecision(d model.TickDecision)
}

type Option func(*Agent)

// WithTerrain sets the grid used when the hello carries none.
func WithTerrain(grid *model.TerrainGrid) Option {
	return func(a *Agent) { a.fallback = grid }
}

func WithRecorder(r Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

func WithDecisionSink(s DecisionSink) Option {
	return func(a *Agent) { a.sink = s }
}

// WithRand injects the escape randomness, for replayable runs.
func WithRand(rng *rand.Rand) Option {
	return func(a *Agent) { a.rng = rng }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

func WithSession(id string) Option {
	return func(a *Agent) { a.Session = id }
}

// Agent owns the decision-making for a single vehicle. It is driven by one
// connection and is not safe for concurrent use.
type Agent struct {
	Session string
	TankID  string
	Team    int
	Name    string

	cfg      Config
	log      *slog.Logger
	rng      *rand.Rand
	fallback *model.TerrainGrid
	recorder Recorder
	sink     DecisionSink
	ins      *instruments

	grid     *model.TerrainGrid
	corridor bool // grid has a safe row

	world  *world.Model
	motion *motion.Controller
	nav    *corridor.Navigator
	goals  *goal.Selector
	turret *turret.Controller

	mode      Mode
	started   bool
	goal      goal.Goal
	hasGoal   bool
	nextPlan  int
	planned   bool // the last plan produced a path
	lastHP    float64
	destroyed bool
	prev      *tickSnapshot

	ticks   int
	stuck   int
	replans int
	shots int
}

func New(cfg Config, opts ...Option) (*Agent, error) {
	cfg = cfg.withDefaults()
	a := &Agent{cfg: cfg, log: slog.Default(), lastHP: -1}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		a.rng = rand.New(rand.NewSource(seed))
	}

	ins, err := newInstruments()
	if err != nil {
		return nil, err
	}
	a.ins = ins
	return a, nil
}

// Mode returns the current navigation mode.
func (a *Agent) Mode() Mode { return a.mode }

// Destroyed reports whether the vehicle has been destroyed.
func (a *Agent) Destroyed() bool { return a.destroyed }

// Navigator returns the corridor navigator, or nil when there is none.
func (a *Agent) Navigator() *corridor.Navigator { return a.nav }

// World exposes the vehicle's belief map.
func (a *Agent) World() *world.Model { return a.world }

// Goal returns the autonomous goal currently being pursued.
func (a *Agent) Goal() (goal.Goal, bool) { return a.goal, a.hasGoal }

// setup seeds the world from grid, which may be nil.
func (a *Agent) setup(grid *model.TerrainGrid) error {
	cellSize := a.cfg.CellSize
	if grid != nil && grid.CellSize > 0 {
		cellSize = grid.CellSize
	}
	a.grid = grid
	a.world = world.New(cellSize)
	a.world.SeedTerrain(grid)
	a.motion = motion.New(a.world, a.rng)
	a.goals = goal.NewSelector(a.world)
	a.nav = nil
	a.corridor = false

	if grid == nil {
		return nil
	}
	// Validate now so a bad grid is reported on the handshake. The real
	// corridor is built on the first tick, once the team is known.
	if _, err := corridor.Generate(grid.SafetyMask(), 1, corridor.DefaultStride); err != nil {
		return err
	}
	a.corridor = true
	return nil
}

// bootstrap runs on the first tick.
func (a *Agent) bootstrap(tank model.TankState) {
	if a.world == nil {
		if err := a.setup(a.fallback); err != nil {
			a.log.Warn("fallback terrain has no corridor", "error", err)
		}
	}
	if a.TankID == "" {
		a.TankID = tank.ID
	}
	if a.Team == 0 {
		a.Team = tank.Team
	}
	if a.Team == 0 && a.grid != nil {
		a.Team = corridor.TeamFromSpawn(tank.Position.X, a.grid.Width())
		a.log.Info("team inferred from spawn", "team", a.Team)
	}

	vision := tank.VisionRange
	if vision <= 0 {
		vision = a.cfg.VisionRange
	}
	a.turret = turret.New(vision, a.cfg.FireThreshold)

	a.mode = Autonomous
	if a.corridor {
		nav, err := corridor.New(a.grid.SafetyMask(), a.Team, a.TankID, corridor.Config{ArrivalRadius: a.cfg.ArrivalRadius})
		if err != nil {
			a.log.Warn("corridor unavailable", "error", err)
		} else {
			nav.Start(tank.Position)
			a.nav = nav
			a.world.SetCheckpoints(nav.Points())
			a.mode = Corridor
		}
	}
	a.started = true
	a.log.Info("agent started", "mode", a.mode, "checkpoints", a.checkpointCount(), "vision", vision)
}

func (a *Agent) checkpointCount() int {
	if a.nav == nil {
		return 0
	}
	return len(a.nav.Points())
}

// Tick runs the per-tick pipeline and returns the clamped command. After the
// vehicle is destroyed it returns the zero command.
func (a *Agent) Tick(req model.TickRequest) model.Command {
	if a.destroyed {
		return model.Command{}
	}
	start := time.Now()
	if !a.started {
		a.bootstrap(req.Tank)
	}

	tank := req.Tank
	caps := tank.Capabilities()
	pos := tank.Position
	hostiles := req.Sensors.Hostiles(a.Team)

	a.world.Decay()
	a.world.Observe(req.Sensors, pos, a.Team)

	if a.motion.UpdateStuck(pos) {
		a.onEscape("stuck", pos)
	}
	a.hazardReflex(req, len(hostiles) > 0)
	a.updateMode(pos)

	var drive motion.Output
	switch {
	case a.motion.Escaping():
		a.hasGoal = false
		drive = a.motion.EscapeDrive(tank.Heading, caps.TopSpeed)
	case a.mode == Corridor:
		a.nav.Advance(pos)
		drive = a.motion.FollowWaypoint(a.nav.Target(), pos, tank.Heading, caps.TopSpeed)
	default:
		drive = a.autonomous(req, caps.TopSpeed, hostiles)
	}

	aim := a.turret.Update(turret.Input{
		Position:    pos,
		Heading:     tank.Heading,
		Barrel:      tank.BarrelAngle,
		MaxRotation: caps.BarrelSpinRate,
		Hostiles:    hostiles,
		Obstacles:   req.Sensors.Obstacles,
		Ammo:        tank.Ammo,
		Stuck:       a.motion.Escaping() || a.motion.StuckCount() >= motion.StuckTicks/2,
	})

	cmd := model.Command{
		BarrelRotation:  aim.Rotation,
		HeadingRotation: drive.Turn,
		MoveSpeed:       drive.Speed,
		Fire:            aim.Fire,
	}
	if aim.Ammo != "" && aim.Ammo != tank.AmmoLoaded {
		cmd.AmmoToLoad = aim.Ammo
	}
	cmd = cmd.Clamp(caps)

	a.ticks++
	a.ins.ticks.Add(context.Background(), 1, metric.WithAttributes(attribute.String("mode", a.mode.String())))
	if cmd.Fire {
		a.shots++
		a.ins.shots.Add(context.Background(), 1, metric.WithAttributes(attribute.String("target", aim.Target.String())))
	}
	a.ins.tickDuration.Record(context.Background(), float64(time.Since(start).Microseconds())/1000)

	snap := takeSnapshot(req, len(hostiles), a.navIndex(), a.mode)
	for _, e := range detectEvents(snap, a.prev) {
		a.log.Info("event", "kind", e.Kind, "tick", e.Tick, "detail", e.Detail)
	}
	a.prev = &snap

	a.report(req, cmd, len(hostiles))
	return cmd
}

// hazardReflex escapes from damaging ground, and from damage taken with no
// hostile in sight.
func (a *Agent) hazardReflex(req model.TickRequest, hostilesVisible bool) {
	if a.motion.Escaping() {
		a.lastHP = req.Tank.HP
		return
	}
	pos := req.Tank.Position
	cell := a.world.CellAt(pos)

	hazard := a.world.IsDangerous(cell)
	reach := a.world.CellSize() * hazardReach
	for _, t := range req.Sensors.Terrains {
		if t.Damage > 0 && geometry.Distance(pos, t.Position) <= reach {
			hazard = true
			break
		}
	}

	if a.lastHP >= 0 && !hostilesVisible {
		if lost := a.lastHP - req.Tank.HP; lost > 0.01 && lost < 5 {
			hazard = true
		}
	}
	a.lastHP = req.Tank.HP

	if !hazard {
		return
	}
	a.world.AddDanger(cell, hazardDanger)
	a.world.MarkDeadEnd(cell, hazardDeadEndTTL)
	a.motion.ClearPath()
	a.motion.StartEscape()
	a.onEscape("hazard", pos)
}

func (a *Agent) onEscape(reason string, pos geometry.Point) {
	a.stuck++
	a.hasGoal = false
	a.ins.stuck.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
	a.log.Info("escape started", "reason", reason, "cell", a.world.CellAt(pos), "heading", a.motion.EscapeHeading())
}

func (a *Agent) updateMode(pos geometry.Point) {
	if a.mode != Corridor {
		return
	}
	if a.nav == nil || a.nav.ShouldSwitch(pos) {
		a.mode = Autonomous
		a.motion.ClearPath()
		a.log.Info("switching to autonomous", "checkpoint", a.navIndex(), "position", pos)
	}
}

func (a *Agent) navIndex() int {
	if a.nav == nil {
		return -1
	}
	return a.nav.Index()
}

// autonomous picks a goal, replans on the cooldown and follows the path.
func (a *Agent) autonomous(req model.TickRequest, topSpeed float64, hostiles []model.SeenTank) motion.Output {
	pos, heading := req.Tank.Position, req.Tank.Heading
	me := a.world.CellAt(pos)

	if pu, ok := a.nearbyPowerup(req.Sensors.Powerups, pos); ok && !a.world.IsDangerous(me) {
		a.motion.ClearPath()
		a.hasGoal = false
		return a.motion.FollowWaypoint(pu, pos, heading, topSpeed)
	}

	cells := make([]world.Cell, len(hostiles))
	for i, h := range hostiles {
		cells[i] = a.world.CellAt(h.Position)
	}
	g, ok := a.goals.Select(me, cells)
	if !ok {
		a.hasGoal = false
		return a.motion.Hold()
	}

	if a.replanDue(me, g, req.Tick) {
		a.plan(me, g, req.Tick)
	}

	if out, ok := a.motion.FollowPath(pos, heading, topSpeed); ok {
		return out
	}
	// No path: drive straight at the goal.
	return a.motion.FollowWaypoint(a.world.Center(a.goal.Cell), pos, heading, topSpeed)
}

// replanDue keeps the current goal and path until the cooldown runs out, the
// path is used up or cut by a newly blocked cell, or a higher-priority kind of goal
// appears. Goal cells drift as the vehicle moves, so a new cell alone is not
// enough.
func (a *Agent) replanDue(me world.Cell, g goal.Goal, tick int) bool {
	switch {
	case !a.hasGoal, g.Kind != a.goal.Kind, tick >= a.nextPlan:
		return true
	case !a.planned:
		return false
	case !a.motion.HasPath():
		return true
	}
	for _, c := range a.motion.Path() {
		if c != me && a.world.IsBlocked(c) {
			return true
		}
	}
	return false
}

func (a *Agent) plan(me world.Cell, g goal.Goal, tick int) {
	a.goal, a.hasGoal = g, true
	a.nextPlan = tick + a.cfg.ReplanCooldown
	a.planned = false
	a.replans++
	a.ins.replans.Add(context.Background(), 1, metric.WithAttributes(attribute.String("goal", g.Kind.String())))

	target := a.clampToSearch(me, g.Cell)
	path := planner.FindPath(a.world, me, target, a.cfg.SearchRadius)
	if path != nil && g.Kind == goal.Engage && planner.PathRisk(a.world, path) > maxEngageRisk {
		a.log.Debug("engage path too risky", "goal", g.Cell)
		path = nil
	}
	if path == nil {
		if alt, ok := a.goals.NearestPassable(target, fallbackSearchRadius); ok && alt != target {
			path = planner.FindPath(a.world, me, alt, a.cfg.SearchRadius)
		}
	}
	if path == nil {
		a.ins.planFailures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("goal", g.Kind.String())))
		a.log.Debug("no path", "from", me, "goal", g.Cell, "kind", g.Kind)
		a.world.MarkDeadEnd(me, planFailureDeadEndTTL)
		a.motion.ClearPath()
		return
	}
	a.motion.SetPath(path)
	a.planned = true
}

// clampToSearch pulls target into the planner's search box around me.
func (a *Agent) clampToSearch(me, target world.Cell) world.Cell {
	r := a.cfg.SearchRadius
	return world.Cell{
		Col: me.Col + max(-r, min(r, target.Col-me.Col)),
		Row: me.Row + max(-r, min(r, target.Row-me.Row)),
	}
}

func (a *Agent) nearbyPowerup(seen []model.SeenPowerup, pos geometry.Point) (geometry.Point, bool) {
	reach := a.world.CellSize() * pickupReach
	best, bestDist := geometry.Point{}, math.Inf(1)
	for _, p := range seen {
		if d := geometry.Distance(pos, p.Position); d <= reach && d < bestDist {
			best, bestDist = p.Position, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func (a *Agent) report(req model.TickRequest, cmd model.Command, hostiles int) {
	goalText := ""
	if a.hasGoal {
		goalText = fmt.Sprintf("%s@%d,%d", a.goal.Kind, a.goal.Cell.Col, a.goal.Cell.Row)
	}

	if req.Tick%a.cfg.StatusEvery == 0 {
		a.log.Info("status",
			"tick", req.Tick,
			"mode", a.mode,
			"motion", a.motion.State(),
			"hp", fmt.Sprintf("%.1f/%.1f", req.Tank.HP, req.Tank.MaxHP),
			"goal", goalText,
			"path", len(a.motion.Path()),
			"speed", cmd.MoveSpeed,
			"turn", cmd.HeadingRotation,
			"hostiles", hostiles,
			"cells", a.world.Len(),
		)
	}

	if a.sink != nil {
		a.sink.WriteDecision(model.TickDecision{
			Session:   a.Session,
			TankID:    a.TankID,
			Tick:      req.Tick,
			Mode:      a.mode.String(),
			Goal:      goalText,
			Speed:     cmd.MoveSpeed,
			Turn:      cmd.HeadingRotation,
			Barrel:    cmd.BarrelRotation,
			Fire:      cmd.Fire,
			PathLen:   len(a.motion.Path()),
			Hostiles:  hostiles,
			Escaping:  a.motion.Escaping(),
			Timestamp: time.Now(),
		})
	}
}

// HandleHello completes the handshake. A terrain grid without a safe row is
// rejected with an error ack; the agent then runs without a corridor.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	a.TankID = hello.TankID
	a.Team = hello.Team
	a.Name = hello.Name
	a.log = a.log.With("tank", a.TankID, "team", a.Team)
	a.log.Info("tank identified", "name", a.Name, "terrain", hello.Terrain != nil)

	grid := a.fallback
	if t := hello.Terrain; t != nil {
		g, err := model.TerrainFromNames(t.Cols, t.Rows, t.CellSize, t.Grid)
		if err != nil {
			a.setup(nil)
			return ackOrError(fmt.Errorf("terrain: %w", err))
		}
		grid = g
	}

	if err := a.setup(grid); err != nil {
		a.log.Warn("terrain rejected", "error", err)
		return ackOrError(err)
	}
	return ackOrError(nil)
}

// HandleTick answers one tick with a command.
func (a *Agent) HandleTick(env ipc.Envelope) (*ipc.Envelope, error) {
	var req model.TickRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal tick: %w", err)
	}

	resp, err := ipc.NewCommandEnvelope(req.Tick, a.Tick(req))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandleDestroy halts command production and records the loss.
func (a *Agent) HandleDestroy(env ipc.Envelope) (*ipc.Envelope, error) {
	a.destroyed = true
	a.log.Info("tank destroyed", "ticks", a.ticks, "shots", a.shots)
	a.record(model.MatchOutcome{Destroyed: true})
	return ackOrError(nil)
}

// HandleEnd logs and records the final tally. It has no other effect.
func (a *Agent) HandleEnd(env ipc.Envelope) (*ipc.Envelope, error) {
	var end ipc.EndMessage
	if err := json.Unmarshal(env.Data, &end); err != nil {
		return nil, fmt.Errorf("unmarshal end: %w", err)
	}
	a.log.Info("match ended", "damage", end.DamageDealt, "kills", end.TanksKilled, "ticks", a.ticks)
	a.record(model.MatchOutcome{
		Destroyed:   a.destroyed,
		Finished:    true,
		DamageDealt: end.DamageDealt,
		TanksKilled: end.TanksKilled,
	})
	return ackOrError(nil)
}

func (a *Agent) record(o model.MatchOutcome) {
	if a.recorder == nil {
		return
	}
	o.Session = a.Session
	o.TankID = a.TankID
	o.Team = a.Team
	o.Name = a.Name
	o.Ticks = a.ticks
	o.StuckCount = a.stuck
	o.ShotsFired = a.shots
	o.RecordedAt = time.Now()
	if err := a.recorder.RecordOutcome(context.Background(), o); err != nil {
		a.log.Error("failed to record outcome", "error", err)
	}
}

// Handlers returns the message handlers to register on a connection.
func (a *Agent) Handlers() map[string]ipc.Handler {
	return map[string]ipc.Handler{
		ipc.TypeHello:   a.HandleHello,
		ipc.TypeTick:    a.HandleTick,
		ipc.TypeDestroy: a.HandleDestroy,
		ipc.TypeEnd:     a.HandleEnd,
	}
}

func ackOrError(err error) (*ipc.Envelope, error) {
	ack, e := ipc.NewAckEnvelope(err)
	if e != nil {
		return nil, e
	}
	return &ack, nil
}
