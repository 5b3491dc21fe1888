package world

import (
	"strings"
	"sync"
	"time"

	"github.com/quiz-world/internal/domain"
)

// direction is a per-axis unit step
type direction struct{ dx, dy float64 }

var movementKeys = map[string]direction{
	"w":          {0, -1},
	"arrowup":    {0, -1},
	"s":          {0, 1},
	"arrowdown":  {0, 1},
	"a":          {-1, 0},
	"arrowleft":  {-1, 0},
	"d":          {1, 0},
	"arrowright": {1, 0},
}

// PickKind is what a click landed on
type PickKind int

const (
	PickNone PickKind = iota
	PickPlayer
	PickGym
)

// Pick is the single action a click resolves to
type Pick struct {
	Kind   PickKind
	Player domain.PublicPlayer
}

// Controller predicts the local player's movement and tracks peers.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	geo    Geometry
	bounds domain.Bounds
	selfID string

	pos      Vec
	emitted  Vec
	keys     map[string]bool
	lastTick time.Time
	peers    []domain.PublicPlayer
}

// NewController places the local player at start
func NewController(geo Geometry, selfID string, start Vec) *Controller {
	b := geo.Bounds()
	x, y := b.Clamp(start.X, start.Y)
	pos := Vec{X: x, Y: y}
	return &Controller{
		geo:     geo,
		bounds:  b,
		selfID:  selfID,
		pos:     pos,
		emitted: pos,
		keys:    make(map[string]bool),
	}
}

// KeyDown marks a key held. It reports whether the key moves the avatar.
func (c *Controller) KeyDown(key string) bool {
	k := strings.ToLower(key)
	if _, ok := movementKeys[k]; !ok {
		return false
	}
	c.mu.Lock()
	c.keys[k] = true
	c.mu.Unlock()
	return true
}

// KeyUp releases a key
func (c *Controller) KeyUp(key string) {
	c.mu.Lock()
	delete(c.keys, strings.ToLower(key))
	c.mu.Unlock()
}

// Tick applies held keys once. Ticks closer than TickInterval to the last
// processed one are ignored. It returns the new position and whether it
// should be sent to the server.
func (c *Controller) Tick(now time.Time) (Vec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastTick.IsZero() && now.Sub(c.lastTick) < TickInterval {
		return c.pos, false
	}
	c.lastTick = now

	var dx, dy float64
	// Each axis moves at most one step even with opposing keys held.
	seen := make(map[direction]bool, 4)
	for k := range c.keys {
		d := movementKeys[k]
		if seen[d] {
			continue
		}
		seen[d] = true
		dx += d.dx * MoveSpeed
		dy += d.dy * MoveSpeed
	}
	if dx == 0 && dy == 0 {
		return c.pos, false
	}

	x, y := c.bounds.Clamp(c.pos.X+dx, c.pos.Y+dy)
	c.pos = Vec{X: x, Y: y}
	if c.pos == c.emitted {
		return c.pos, false
	}
	c.emitted = c.pos
	return c.pos, true
}

// Position returns the predicted local position
func (c *Controller) Position() Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// SetPeers replaces the peer set with the latest listing. The local player's
// own entry, if present, is ignored.
func (c *Controller) SetPeers(players []domain.PublicPlayer) {
	peers := make([]domain.PublicPlayer, 0, len(players))
	for _, p := range players {
		if p.ID != c.selfID {
			peers = append(peers, p)
		}
	}
	c.mu.Lock()
	c.peers = peers
	c.mu.Unlock()
}

// Peers returns a copy of the current peer set
func (c *Controller) Peers() []domain.PublicPlayer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.PublicPlayer(nil), c.peers...)
}

// Camera centres the local player in the viewport
func (c *Controller) Camera(viewport Vec) Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geo.CameraFor(c.pos, viewport)
}

// Click resolves a viewport click. Peers are tested first; the gym only
// if no peer was hit.
func (c *Controller) Click(screen, viewport Vec) Pick {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.geo.CameraFor(c.pos, viewport).ToWorld(screen)
	for _, peer := range c.peers {
		if distance(p, c.geo.Center(Vec{X: peer.X, Y: peer.Y})) < c.geo.PlayerSize {
			return Pick{Kind: PickPlayer, Player: peer}
		}
	}
	if c.geo.Gym().Contains(p) {
		return Pick{Kind: PickGym}
	}
	return Pick{Kind: PickNone}
}
