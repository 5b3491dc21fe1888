package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/quiz-world/internal/battle"
	"github.com/quiz-world/internal/kafka"
)

var trainerNames = []string{
	"Ash", "Misty", "Brock", "Gary", "Dawn", "May", "Serena", "Iris", "Cilan", "Clemont",
	"Lillie", "Kiawe", "Lana", "Mallow", "Sophocles", "Gladion", "Hau", "Leon", "Nessa", "Raihan",
}

func trainerName(idx int) string {
	return fmt.Sprintf("%s%d", trainerNames[idx%len(trainerNames)], idx/len(trainerNames)+1)
}

// gauntletScore simulates a full gauntlet run against the gym bank
func gauntletScore(rnd *rand.Rand) int64 {
	g, err := battle.NewGauntlet(battle.GymQuestions, battle.DefaultQuestionCount)
	if err != nil {
		return 0
	}
	for {
		q, ok := g.Question()
		if !ok {
			break
		}
		// Spend 0-29 seconds on the question, then answer right two times in three.
		for i := rnd.Intn(battle.QuestionSeconds); i > 0; i-- {
			g.Tick()
		}
		choice := q.Answer
		if rnd.Intn(3) == 0 {
			choice = (q.Answer + 1) % len(q.Options)
		}
		if _, err := g.Answer(choice); err != nil {
			break
		}
	}
	res, err := g.Result()
	if err != nil {
		return 0
	}
	return int64(res.Score)
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "gym-results", "Kafka topic")
	totalPlayers := flag.Int("players", 200, "Number of simulated trainers")
	rate := flag.Int("rate", 20, "Gym results per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *totalPlayers <= 0 || *rate <= 0 {
		logger.Error("players and rate must be positive")
		os.Exit(1)
	}

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			logger.Warn("producer error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdown := func(reason string) {
		logger.Info("shutting down", "reason", reason)
		producer.AsyncClose()
		wg.Wait()
		logger.Info("producer stopped",
			"sent", atomic.LoadInt64(&successCount),
			"errors", atomic.LoadInt64(&errorCount),
		)
	}

	logger.Info("publishing gym results",
		"brokers", *brokers,
		"topic", *topic,
		"players", *totalPlayers,
		"rate", *rate,
	)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	for {
		select {
		case <-sigChan:
			shutdown("signal")
			return

		case <-deadline:
			shutdown("duration reached")
			return

		case <-ticker.C:
			idx := rnd.Intn(*totalPlayers)
			playerID := fmt.Sprintf("player_bot_%04d", idx)
			data, err := json.Marshal(kafka.ScoreMessage{
				PlayerID: playerID,
				Username: trainerName(idx),
				Score:    gauntletScore(rnd),
			})
			if err != nil {
				logger.Warn("failed to marshal message", "error", err)
				continue
			}
			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(playerID),
				Value: sarama.ByteEncoder(data),
			}

		case <-statsTicker.C:
			logger.Info("producer stats",
				"sent", atomic.LoadInt64(&successCount),
				"errors", atomic.LoadInt64(&errorCount),
			)
		}
	}
}
