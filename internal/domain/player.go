package domain

import (
	"strings"
	"time"
)

// Default stats for newly created players
const (
	DefaultHP    = 100
	DefaultLevel = 1
	SpawnX       = 200
	SpawnY       = 200
)

// Player is the stored record for a player avatar
type Player struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	AvatarColor  string   `json:"avatarColor"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	HP           int      `json:"hp"`
	MaxHP        int      `json:"maxHp"`
	Level        int      `json:"level"`
	Badges       []string `json:"badges"`
	FashionItems []string `json:"fashionItems"`
	LastUpdate   int64    `json:"lastUpdate"`
	PasswordHash string   `json:"passwordHash,omitempty"`
}

// NewPlayer returns a player with default stats at the spawn point
func NewPlayer(id, username, avatarColor string, now time.Time) *Player {
	return &Player{
		ID:           id,
		Username:     username,
		AvatarColor:  avatarColor,
		X:            SpawnX,
		Y:            SpawnY,
		HP:           DefaultHP,
		MaxHP:        DefaultHP,
		Level:        DefaultLevel,
		Badges:       []string{},
		FashionItems: []string{},
		LastUpdate:   now.UnixMilli(),
	}
}

// Touch refreshes the liveness timestamp
func (p *Player) Touch(now time.Time) {
	p.LastUpdate = now.UnixMilli()
}

// LastSeen returns LastUpdate as a time
func (p *Player) LastSeen() time.Time {
	return time.UnixMilli(p.LastUpdate)
}

// Normalize repairs invariants on records read back from the store
func (p *Player) Normalize() {
	if p.MaxHP <= 0 {
		p.MaxHP = DefaultHP
	}
	if p.HP < 0 {
		p.HP = 0
	}
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	if p.Level < DefaultLevel {
		p.Level = DefaultLevel
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if p.FashionItems == nil {
		p.FashionItems = []string{}
	}
}

// HasBadge reports whether the badge was already granted
func (p *Player) HasBadge(badge string) bool {
	for _, b := range p.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// Public strips the record down to what other clients may see
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:          p.ID,
		Username:    p.Username,
		AvatarColor: p.AvatarColor,
		X:           p.X,
		Y:           p.Y,
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		Level:       p.Level,
	}
}

// Self is the view returned to the owning client
func (p *Player) Self() Player {
	out := *p
	out.PasswordHash = ""
	return out
}

// PublicPlayer is the listing projection of a player
type PublicPlayer struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	AvatarColor string  `json:"avatarColor"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	HP          int     `json:"hp"`
	MaxHP       int     `json:"maxHp"`
	Level       int     `json:"level"`
}

// NormalizeUsername is the form used for account lookups
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Bounds is the playable area for the top-left corner of an avatar
type Bounds struct {
	MaxX float64
	MaxY float64
}

// NewBounds computes bounds from map size in tiles, tile size and avatar size
func NewBounds(mapWidth, mapHeight int, tileSize, playerSize float64) Bounds {
	return Bounds{
		MaxX: float64(mapWidth)*tileSize - playerSize,
		MaxY: float64(mapHeight)*tileSize - playerSize,
	}
}

// Clamp pins x,y into [0, MaxX] x [0, MaxY]
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	return clamp(x, 0, b.MaxX), clamp(y, 0, b.MaxY)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
