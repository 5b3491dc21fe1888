// Package world is the client-side world model: local movement prediction,
// camera transforms, click picking and the poll loops that reconcile peers.
package world

import (
	"math"
	"time"

	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
)

// Movement tuning
const (
	MoveSpeed    = 3
	TickInterval = 16 * time.Millisecond
)

// Vec is a point or size in pixels
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixels
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// GymTiles is the gym zone in tile units
var GymTiles = Rect{X: 35, Y: 8, W: 10, H: 10}

// Geometry is the map layout shared with the server
type Geometry struct {
	MapWidth   int
	MapHeight  int
	TileSize   float64
	PlayerSize float64
}

// GeometryFrom builds a Geometry from the world config section
func GeometryFrom(cfg *config.WorldConfig) Geometry {
	return Geometry{
		MapWidth:   cfg.MapWidth,
		MapHeight:  cfg.MapHeight,
		TileSize:   cfg.TileSize,
		PlayerSize: cfg.PlayerSize,
	}
}

// Bounds returns the clamp range for an avatar's top-left corner
func (g Geometry) Bounds() domain.Bounds {
	return domain.NewBounds(g.MapWidth, g.MapHeight, g.TileSize, g.PlayerSize)
}

// Gym returns the gym zone in pixels
func (g Geometry) Gym() Rect {
	return Rect{
		X: GymTiles.X * g.TileSize,
		Y: GymTiles.Y * g.TileSize,
		W: GymTiles.W * g.TileSize,
		H: GymTiles.H * g.TileSize,
	}
}

// Center returns the centre of an avatar whose top-left corner is at pos
func (g Geometry) Center(pos Vec) Vec {
	return Vec{X: pos.X + g.PlayerSize/2, Y: pos.Y + g.PlayerSize/2}
}

// Camera is the world-space origin of the viewport
type Camera struct {
	Origin Vec
}

// CameraFor centres the avatar at pos in a viewport of the given size
func (g Geometry) CameraFor(pos, viewport Vec) Camera {
	return Camera{Origin: Vec{
		X: pos.X - viewport.X/2 + g.PlayerSize/2,
		Y: pos.Y - viewport.Y/2 + g.PlayerSize/2,
	}}
}

// ToScreen converts a world point to viewport coordinates
func (c Camera) ToScreen(p Vec) Vec {
	return Vec{X: p.X - c.Origin.X, Y: p.Y - c.Origin.Y}
}

// ToWorld converts a viewport point to world coordinates
func (c Camera) ToWorld(p Vec) Vec {
	return Vec{X: p.X + c.Origin.X, Y: p.Y + c.Origin.Y}
}

func distance(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
