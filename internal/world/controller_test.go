package world

import (
	"testing"
	"time"

	"github.com/quiz-world/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() Geometry {
	return Geometry{MapWidth: 50, MapHeight: 40, TileSize: 40, PlayerSize: 30}
}

func TestControllerMovement(t *testing.T) {
	c := NewController(testGeometry(), "me", Vec{X: 200, Y: 200})
	t0 := time.Unix(0, 0)

	assert.True(t, c.KeyDown("W"))
	assert.False(t, c.KeyDown("q"))

	pos, changed := c.Tick(t0)
	assert.True(t, changed)
	assert.Equal(t, Vec{X: 200, Y: 197}, pos)

	t.Run("ticks inside the interval are ignored", func(t *testing.T) {
		pos, changed := c.Tick(t0.Add(10 * time.Millisecond))
		assert.False(t, changed)
		assert.Equal(t, Vec{X: 200, Y: 197}, pos)
	})

	t.Run("diagonal", func(t *testing.T) {
		c.KeyDown("ArrowRight")
		pos, changed := c.Tick(t0.Add(16 * time.Millisecond))
		assert.True(t, changed)
		assert.Equal(t, Vec{X: 203, Y: 194}, pos)
	})

	t.Run("aliases for one direction step once", func(t *testing.T) {
		c.KeyUp("arrowright")
		c.KeyDown("arrowup")
		pos, _ := c.Tick(t0.Add(32 * time.Millisecond))
		assert.Equal(t, Vec{X: 203, Y: 191}, pos)
	})

	t.Run("released keys stop movement", func(t *testing.T) {
		c.KeyUp("w")
		c.KeyUp("ARROWUP")
		pos, changed := c.Tick(t0.Add(48 * time.Millisecond))
		assert.False(t, changed)
		assert.Equal(t, Vec{X: 203, Y: 191}, pos)
	})
}

func TestControllerClampSuppressesEmit(t *testing.T) {
	c := NewController(testGeometry(), "me", Vec{X: 0, Y: 0})
	t0 := time.Unix(0, 0)

	c.KeyDown("a")
	c.KeyDown("w")
	pos, changed := c.Tick(t0)
	assert.False(t, changed)
	assert.Equal(t, Vec{}, pos)

	c2 := NewController(testGeometry(), "me", Vec{X: 5000, Y: 5000})
	assert.Equal(t, Vec{X: 1970, Y: 1570}, c2.Position())
	c2.KeyDown("d")
	_, changed = c2.Tick(t0)
	assert.False(t, changed)
}

func TestCamera(t *testing.T) {
	geo := testGeometry()
	cam := geo.CameraFor(Vec{X: 200, Y: 200}, Vec{X: 800, Y: 600})
	assert.Equal(t, Vec{X: -185, Y: -85}, cam.Origin)

	p := Vec{X: 515, Y: 433}
	assert.Equal(t, p, cam.ToWorld(cam.ToScreen(p)))

	// The avatar's centre lands on the viewport centre.
	assert.Equal(t, Vec{X: 400, Y: 300}, cam.ToScreen(geo.Center(Vec{X: 200, Y: 200})))
}

func TestClick(t *testing.T) {
	viewport := Vec{X: 800, Y: 600}
	c := NewController(testGeometry(), "me", Vec{X: 200, Y: 200})
	cam := c.Camera(viewport)

	peer := domain.PublicPlayer{ID: "p2", Username: "bob", X: 500, Y: 500}
	c.SetPeers([]domain.PublicPlayer{
		{ID: "me", Username: "self", X: 200, Y: 200},
		peer,
	})
	require.Len(t, c.Peers(), 1)

	t.Run("peer hit", func(t *testing.T) {
		pick := c.Click(cam.ToScreen(Vec{X: 520, Y: 515}), viewport)
		assert.Equal(t, PickPlayer, pick.Kind)
		assert.Equal(t, "p2", pick.Player.ID)
	})

	t.Run("outside hit radius", func(t *testing.T) {
		pick := c.Click(cam.ToScreen(Vec{X: 545, Y: 515}), viewport)
		assert.Equal(t, PickNone, pick.Kind)
	})

	t.Run("own avatar is not a target", func(t *testing.T) {
		pick := c.Click(cam.ToScreen(Vec{X: 215, Y: 215}), viewport)
		assert.Equal(t, PickNone, pick.Kind)
	})

	t.Run("gym edges are inclusive", func(t *testing.T) {
		assert.Equal(t, PickGym, c.Click(cam.ToScreen(Vec{X: 1400, Y: 320}), viewport).Kind)
		assert.Equal(t, PickGym, c.Click(cam.ToScreen(Vec{X: 1800, Y: 720}), viewport).Kind)
		assert.Equal(t, PickNone, c.Click(cam.ToScreen(Vec{X: 1801, Y: 720}), viewport).Kind)
	})

	t.Run("peers win over the gym", func(t *testing.T) {
		c.SetPeers([]domain.PublicPlayer{{ID: "p3", X: 1500, Y: 400}})
		pick := c.Click(cam.ToScreen(Vec{X: 1515, Y: 415}), viewport)
		assert.Equal(t, PickPlayer, pick.Kind)
		assert.Equal(t, "p3", pick.Player.ID)
	})
}
