package model

import "time"

// MatchOutcome is what one vehicle learned about its match. It is written when
// the vehicle is destroyed or the match ends.
type MatchOutcome struct {
	Session     string
	TankID      string
	Team        int
	Name        string
	Destroyed   bool
	Finished    bool
	DamageDealt float64
	TanksKilled int
	Ticks       int
	StuckCount  int
	ShotsFired  int
	RecordedAt  time.Time
}

// TickDecision summarizes what the agent chose on one tick.
type TickDecision struct {
	Session   string
	TankID    string
	Tick      int
	Mode      string
	Goal      string
	Speed     float64
	Turn      float64
	Barrel    float64
	Fire      bool
	PathLen   int
	Hostiles  int
	Escaping  bool
	Timestamp time.Time
}
