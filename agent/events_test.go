package agent

import (
	"testing"

	"github.com/Jvsin/tank-agent-ai/model"
)

// baseTick returns a minimal tick request for testing.
func baseTick(tick int) model.TickRequest {
	return model.TickRequest{
		Tick: tick,
		Tank: model.TankState{
			HP:    100,
			MaxHP: 100,
			Ammo:  map[string]int{"LIGHT": 5, "HEAVY": 1},
		},
		EnemiesRemaining: 3,
	}
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestDetectEvents_NoEvents(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, 2, Corridor)
	events := detectEvents(takeSnapshot(baseTick(101), 0, 2, Corridor), &prev)
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d: %+v", len(events), events)
	}
}

func TestDetectEvents_NilPrev(t *testing.T) {
	if events := detectEvents(takeSnapshot(baseTick(1), 2, 0, Corridor), nil); events != nil {
		t.Errorf("expected nil events for nil prev, got %+v", events)
	}
}

func TestDetectEvents_Contact(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, -1, Autonomous)
	cur := takeSnapshot(baseTick(101), 2, -1, Autonomous)
	if events := detectEvents(cur, &prev); !hasEvent(events, EventFirstContact) {
		t.Errorf("expected first_contact, got %+v", events)
	}

	next := takeSnapshot(baseTick(102), 0, -1, Autonomous)
	if events := detectEvents(next, &cur); !hasEvent(events, EventContactLost) {
		t.Errorf("expected contact_lost, got %+v", events)
	}
}

func TestDetectEvents_Damage(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, 0, Corridor)

	gs := baseTick(101)
	gs.Tank.HP = 70
	events := detectEvents(takeSnapshot(gs, 0, 0, Corridor), &prev)
	if !hasEvent(events, EventHeavyDamage) {
		t.Errorf("expected heavy_damage, got %+v", events)
	}
	if hasEvent(events, EventHPCritical) {
		t.Errorf("did not expect hp_critical at 70%%, got %+v", events)
	}

	prev = takeSnapshot(gs, 0, 0, Corridor)
	gs.Tank.HP = 25
	events = detectEvents(takeSnapshot(gs, 0, 0, Corridor), &prev)
	if !hasEvent(events, EventHPCritical) {
		t.Errorf("expected hp_critical, got %+v", events)
	}
}

func TestDetectEvents_SmallDamageIgnored(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, 0, Corridor)
	gs := baseTick(101)
	gs.Tank.HP = 90
	if events := detectEvents(takeSnapshot(gs, 0, 0, Corridor), &prev); len(events) != 0 {
		t.Errorf("expected no events for a 10%% hit, got %+v", events)
	}
}

func TestDetectEvents_AmmoDepleted(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, 0, Corridor)
	gs := baseTick(101)
	gs.Tank.Ammo = map[string]int{"LIGHT": 0, "HEAVY": 0}
	if events := detectEvents(takeSnapshot(gs, 0, 0, Corridor), &prev); !hasEvent(events, EventAmmoDepleted) {
		t.Errorf("expected ammo_depleted, got %+v", events)
	}
}

func TestDetectEvents_CheckpointAndMode(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 0, 1, Corridor)
	events := detectEvents(takeSnapshot(baseTick(101), 0, 2, Corridor), &prev)
	if !hasEvent(events, EventCheckpointReached) {
		t.Errorf("expected checkpoint_reached, got %+v", events)
	}

	events = detectEvents(takeSnapshot(baseTick(101), 0, 1, Autonomous), &prev)
	if !hasEvent(events, EventModeChanged) {
		t.Errorf("expected mode_changed, got %+v", events)
	}
	if hasEvent(events, EventCheckpointReached) {
		t.Errorf("did not expect checkpoint_reached, got %+v", events)
	}
}

func TestDetectEvents_EnemiesDown(t *testing.T) {
	prev := takeSnapshot(baseTick(100), 1, -1, Autonomous)
	gs := baseTick(101)
	gs.EnemiesRemaining = 2
	if events := detectEvents(takeSnapshot(gs, 1, -1, Autonomous), &prev); !hasEvent(events, EventEnemyDown) {
		t.Errorf("expected enemy_down, got %+v", events)
	}
}
