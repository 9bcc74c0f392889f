// Package sim provides a deterministic river-scroller game used as the
// actuated system when no emulator is attached.
package sim

import (
	"fmt"
	"sync"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// RAMSize is the size of the game's RAM image.
const RAMSize = 128

// RAM offsets.
const (
	OffsetFrame   = 0
	OffsetShots   = 7
	OffsetPlayerX = 58
	OffsetSpeed   = 104
	OffsetLives   = 120
	OffsetFuel    = 121
	OffsetScoreLo = 122
	OffsetScoreHi = 123
)

// Game tuning.
const (
	MinX          = 16
	MaxX          = 144
	StartX        = 80
	MinSpeed      = 1
	MaxSpeed      = 4
	StartLives    = 3
	FullFuel      = 255
	FuelPeriod    = 32
	PointsPerShot = 10
	FireCooldown  = 8
	moveStep      = 2
)

// Native actions, in the order of the full 18-action joystick set.
const (
	ActionNoop domain.Action = iota
	ActionFire
	ActionUp
	ActionRight
	ActionLeft
	ActionDown
	ActionUpRight
	ActionUpLeft
	ActionDownRight
	ActionDownLeft
	ActionUpFire
	ActionRightFire
	ActionLeftFire
	ActionDownFire
	ActionUpRightFire
	ActionUpLeftFire
	ActionDownRightFire
	ActionDownLeftFire
	numActions
)

type joystick struct {
	up, down, left, right, fire bool
}

var decode = [numActions]joystick{
	ActionNoop:          {},
	ActionFire:          {fire: true},
	ActionUp:            {up: true},
	ActionRight:         {right: true},
	ActionLeft:          {left: true},
	ActionDown:          {down: true},
	ActionUpRight:       {up: true, right: true},
	ActionUpLeft:        {up: true, left: true},
	ActionDownRight:     {down: true, right: true},
	ActionDownLeft:      {down: true, left: true},
	ActionUpFire:        {up: true, fire: true},
	ActionRightFire:     {right: true, fire: true},
	ActionLeftFire:      {left: true, fire: true},
	ActionDownFire:      {down: true, fire: true},
	ActionUpRightFire:   {up: true, right: true, fire: true},
	ActionUpLeftFire:    {up: true, left: true, fire: true},
	ActionDownRightFire: {down: true, right: true, fire: true},
	ActionDownLeftFire:  {down: true, left: true, fire: true},
}

// Game is a deterministic game whose state lives in a RAM image. It is
// driven by one goroutine; the mutex only protects against misuse.
type Game struct {
	mu       sync.Mutex
	ram      domain.Snapshot
	pending  domain.Action
	cooldown int
}

// NewGame returns a game in its initial configuration.
func NewGame() *Game {
	return &Game{ram: initialRAM()}
}

func initialRAM() domain.Snapshot {
	ram := make(domain.Snapshot, RAMSize)
	ram[OffsetPlayerX] = StartX
	ram[OffsetSpeed] = MinSpeed
	ram[OffsetLives] = StartLives
	ram[OffsetFuel] = FullFuel
	return ram
}

// LegalActions returns all 18 joystick actions. Index 0 is idle.
func (g *Game) LegalActions() []domain.Action {
	out := make([]domain.Action, numActions)
	for i := range out {
		out[i] = domain.Action(i)
	}
	return out
}

// Apply sets the action used by the next Step.
func (g *Game) Apply(a domain.Action) error {
	if a < 0 || a >= numActions {
		return fmt.Errorf("sim: illegal action %d", a)
	}
	g.mu.Lock()
	g.pending = a
	g.mu.Unlock()
	return nil
}

// Step advances one frame and returns a copy of RAM.
func (g *Game) Step() (domain.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ram := g.ram
	ram[OffsetFrame]++
	if ram[OffsetLives] == 0 {
		return ram.Clone(), nil
	}

	js := decode[g.pending]
	switch {
	case js.up && ram[OffsetSpeed] < MaxSpeed:
		ram[OffsetSpeed]++
	case js.down && ram[OffsetSpeed] > MinSpeed:
		ram[OffsetSpeed]--
	}
	switch {
	case js.left:
		ram[OffsetPlayerX] = clampX(int(ram[OffsetPlayerX]) - moveStep)
	case js.right:
		ram[OffsetPlayerX] = clampX(int(ram[OffsetPlayerX]) + moveStep)
	}

	if g.cooldown > 0 {
		g.cooldown--
	}
	if js.fire && g.cooldown == 0 {
		ram[OffsetShots]++
		g.addScore(PointsPerShot)
		g.cooldown = FireCooldown
	}

	if ram[OffsetFrame]%FuelPeriod == 0 {
		ram[OffsetFuel]--
		if ram[OffsetFuel] == 0 {
			ram[OffsetFuel] = FullFuel
			ram[OffsetLives]--
		}
	}
	return ram.Clone(), nil
}

func (g *Game) addScore(points int) {
	score := int(g.ram[OffsetScoreHi])<<8 | int(g.ram[OffsetScoreLo])
	score = (score + points) & 0xffff
	g.ram[OffsetScoreLo] = byte(score)
	g.ram[OffsetScoreHi] = byte(score >> 8)
}

// Score returns the 16-bit score.
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(g.ram[OffsetScoreHi])<<8 | int(g.ram[OffsetScoreLo])
}

// Reset restores the initial configuration and clears the pending action.
func (g *Game) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ram = initialRAM()
	g.pending = ActionNoop
	g.cooldown = 0
	return nil
}

// InitialState returns the RAM image of a freshly reset game.
func (g *Game) InitialState() (domain.Snapshot, error) {
	return initialRAM(), nil
}

func clampX(x int) byte {
	if x < MinX {
		return MinX
	}
	if x > MaxX {
		return MaxX
	}
	return byte(x)
}
