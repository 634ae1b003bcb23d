package agent

import (
	"fmt"

	"github.com/Jvsin/tank-agent-ai/model"
)

// EventKind identifies a notable change between two consecutive ticks.
type EventKind string

const (
	EventFirstContact      EventKind = "first_contact"
	EventContactLost       EventKind = "contact_lost"
	EventHeavyDamage       EventKind = "heavy_damage"
	EventHPCritical        EventKind = "hp_critical"
	EventAmmoDepleted      EventKind = "ammo_depleted"
	EventCheckpointReached EventKind = "checkpoint_reached"
	EventModeChanged       EventKind = "mode_changed"
	EventEnemyDown         EventKind = "enemy_down"
)

// Event is a change detected by diffing tick snapshots. Events are only
// logged; they never feed back into the decision pipeline.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

const (
	// A single-tick loss of this share of max hp is heavy damage.
	heavyDamageRatio = 0.25
	criticalHPRatio  = 0.3
)

// tickSnapshot captures the diffable fields of one tick.
type tickSnapshot struct {
	tick       int
	hostiles   int
	hpRatio    float64
	ammo       int
	checkpoint int
	mode       Mode
	enemies    int
}

func takeSnapshot(req model.TickRequest, hostiles int, checkpoint int, mode Mode) tickSnapshot {
	ammo := 0
	for _, n := range req.Tank.Ammo {
		ammo += max(n, 0)
	}
	return tickSnapshot{
		tick:       req.Tick,
		hostiles:   hostiles,
		hpRatio:    req.Tank.HPRatio(),
		ammo:       ammo,
		checkpoint: checkpoint,
		mode:       mode,
		enemies:    req.EnemiesRemaining,
	}
}

func detectEvents(cur tickSnapshot, prev *tickSnapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event

	if prev.hostiles == 0 && cur.hostiles > 0 {
		events = append(events, Event{
			Kind:   EventFirstContact,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("%d hostile(s) in sight", cur.hostiles),
		})
	}
	if prev.hostiles > 0 && cur.hostiles == 0 {
		events = append(events, Event{
			Kind:   EventContactLost,
			Tick:   cur.tick,
			Detail: "no hostiles in sight",
		})
	}

	if lost := prev.hpRatio - cur.hpRatio; lost >= heavyDamageRatio {
		events = append(events, Event{
			Kind:   EventHeavyDamage,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("hp %.0f%% -> %.0f%%", 100*prev.hpRatio, 100*cur.hpRatio),
		})
	}
	if prev.hpRatio >= criticalHPRatio && cur.hpRatio < criticalHPRatio && cur.hpRatio > 0 {
		events = append(events, Event{
			Kind:   EventHPCritical,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("hp at %.0f%%", 100*cur.hpRatio),
		})
	}

	if prev.ammo > 0 && cur.ammo == 0 {
		events = append(events, Event{Kind: EventAmmoDepleted, Tick: cur.tick, Detail: "no ammunition left"})
	}

	if cur.checkpoint > prev.checkpoint && prev.checkpoint >= 0 {
		events = append(events, Event{
			Kind:   EventCheckpointReached,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("checkpoint %d -> %d", prev.checkpoint, cur.checkpoint),
		})
	}

	if prev.mode != cur.mode {
		events = append(events, Event{
			Kind:   EventModeChanged,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("%s -> %s", prev.mode, cur.mode),
		})
	}

	if cur.enemies < prev.enemies {
		events = append(events, Event{
			Kind:   EventEnemyDown,
			Tick:   cur.tick,
			Detail: fmt.Sprintf("enemies remaining %d -> %d", prev.enemies, cur.enemies),
		})
	}

	return events
}
