package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quiz-world/internal/battle"
	"github.com/quiz-world/internal/client"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/world"
)

var keys = []string{"w", "a", "s", "d"}

// bot is a headless player that wanders the map, chats, duels and runs the gym
type bot struct {
	api      *client.Client
	player   *domain.Player
	session  *world.Session
	geo      world.Geometry
	viewport world.Vec
	rnd      *rand.Rand
	accuracy int
	logger   *slog.Logger
}

func main() {
	server := flag.String("server", "http://localhost:8080", "World server base URL")
	anonKey := flag.String("key", os.Getenv("QUIZWORLD_AUTH_ANON_KEY"), "Bearer key")
	username := flag.String("username", "Bot", "Trainer name")
	password := flag.String("password", "", "Account password")
	color := flag.String("color", "#4ECDC4", "Avatar color")
	create := flag.Bool("create", true, "Create the account if it does not exist")
	accuracy := flag.Int("accuracy", 70, "Chance in percent of answering correctly")
	duration := flag.Duration("duration", time.Minute, "How long to play (0 = until interrupted)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	api := client.New(*server, *anonKey)
	if err := api.Health(ctx); err != nil {
		logger.Error("server unavailable", "server", *server, "error", err)
		os.Exit(1)
	}

	player, err := api.JoinOrCreate(ctx, *username, *color, *password, func(name string) bool {
		logger.Info("account not found", "username", name, "create", *create)
		return *create
	})
	if err != nil {
		logger.Error("failed to sign in", "username", *username, "error", err)
		os.Exit(1)
	}
	logger.Info("signed in", "player_id", player.ID, "x", player.X, "y", player.Y)

	geo := world.GeometryFrom(&config.DefaultConfig().World)
	ctrl := world.NewController(geo, player.ID, world.Vec{X: player.X, Y: player.Y})
	session := world.NewSession(api, ctrl, player.ID, world.SessionOptions{}, logger)
	session.Start(ctx)
	defer session.Close()

	b := &bot{
		api:      api,
		player:   player,
		session:  session,
		geo:      geo,
		viewport: world.Vec{X: 800, Y: 600},
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		accuracy: *accuracy,
		logger:   logger,
	}
	b.run(ctx)
}

func (b *bot) run(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for round := 0; ; round++ {
		select {
		case <-ctx.Done():
			b.logger.Info("bot finished", "level", b.player.Level, "badges", b.player.Badges)
			return
		case <-ticker.C:
		}

		b.wander()
		switch round % 5 {
		case 1:
			b.chat(ctx)
		case 2:
			b.challenge(ctx)
		case 4:
			b.gym(ctx)
		}
	}
}

// wander releases all keys and holds a random one
func (b *bot) wander() {
	ctrl := b.session.Controller()
	for _, k := range keys {
		ctrl.KeyUp(k)
	}
	ctrl.KeyDown(keys[b.rnd.Intn(len(keys))])
}

func (b *bot) chat(ctx context.Context) {
	pos := b.session.Controller().Position()
	if err := b.api.SendChat(ctx, b.player.ID, b.player.Username, fmt.Sprintf("exploring near (%.0f, %.0f)", pos.X, pos.Y)); err != nil {
		b.logger.Warn("chat failed", "error", err)
	}
	for _, line := range b.session.Chat() {
		b.logger.Debug("chat", "username", line.Username, "message", line.Message)
	}
}

// challenge clicks the first visible peer and fights a duel with them
func (b *bot) challenge(ctx context.Context) {
	ctrl := b.session.Controller()
	peers := ctrl.Peers()
	if len(peers) == 0 {
		return
	}
	target := peers[b.rnd.Intn(len(peers))]
	centre := b.geo.Center(world.Vec{X: target.X, Y: target.Y})
	pick := ctrl.Click(ctrl.Camera(b.viewport).ToScreen(centre), b.viewport)
	if pick.Kind != world.PickPlayer {
		return
	}

	duel, err := battle.NewDuel(battle.DuelQuestions, b.rnd, time.Now, battle.DuelOptions{PlayerHP: b.player.HP})
	if err != nil {
		b.logger.Warn("duel setup failed", "error", err)
		return
	}
	for !duel.Over() {
		if err := b.duelTurn(duel); err != nil {
			b.logger.Warn("duel turn failed", "error", err)
			return
		}
	}

	winner, _ := duel.Winner()
	won := winner == battle.SidePlayer
	b.logger.Info("duel finished", "opponent", pick.Player.Username, "won", won)

	updated, err := b.api.ApplyDuelResult(ctx, b.player.ID, won)
	if err != nil {
		b.logger.Warn("recording duel result failed", "error", err)
		return
	}
	b.player = updated
}

func (b *bot) duelTurn(duel *battle.Duel) error {
	res, err := duel.Answer(b.choose(duel.Question()))
	if err != nil {
		return err
	}
	if !res.Correct {
		_, err := duel.ResolveOpponentAttack()
		return err
	}

	action := battle.ActionAttack
	if duel.PlayerHP() < duel.MaxHP()/3 {
		action = battle.ActionHeal
	}
	_, err = duel.Act(action)
	if errors.Is(err, battle.ErrInsufficientPoints) {
		_, err = duel.Act(battle.ActionDefense)
	}
	return err
}

// gym clicks the gym zone and runs a full gauntlet
func (b *bot) gym(ctx context.Context) {
	ctrl := b.session.Controller()
	gym := b.geo.Gym()
	centre := world.Vec{X: gym.X + gym.W/2, Y: gym.Y + gym.H/2}
	if pick := ctrl.Click(ctrl.Camera(b.viewport).ToScreen(centre), b.viewport); pick.Kind != world.PickGym {
		return
	}

	g, err := battle.NewGauntlet(battle.GymQuestions, battle.DefaultQuestionCount)
	if err != nil {
		b.logger.Warn("gauntlet setup failed", "error", err)
		return
	}
	for !g.Complete() {
		q, _ := g.Question()
		for i := b.rnd.Intn(battle.QuestionSeconds); i > 0; i-- {
			g.Tick()
		}
		if _, err := g.Answer(b.choose(q)); err != nil {
			break
		}
	}

	result, err := g.Result()
	if err != nil {
		b.logger.Warn("gauntlet incomplete", "error", err)
		return
	}

	accepted, msg, err := b.api.SubmitScore(ctx, b.player.ID, b.player.Username, int64(result.Score))
	if err != nil {
		b.logger.Warn("score submission failed", "error", err)
		return
	}
	b.logger.Info("gauntlet finished", "score", result.Score, "accepted", accepted, "message", msg)

	if result.Badge != "" {
		updated, err := b.api.GrantBadge(ctx, b.player.ID, result.Badge)
		if err != nil {
			b.logger.Warn("granting badge failed", "error", err)
			return
		}
		b.player = updated
	}
}

func (b *bot) choose(q battle.Question) int {
	if b.rnd.Intn(100) < b.accuracy {
		return q.Answer
	}
	return (q.Answer + 1 + b.rnd.Intn(len(q.Options)-1)) % len(q.Options)
}

