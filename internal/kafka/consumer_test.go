package kafka

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]domain.ScoreSubmission
}

func (r *recordingHandler) SubmitBatch(_ context.Context, subs []domain.ScoreSubmission) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]domain.ScoreSubmission(nil), subs...))
	return len(subs), nil
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "gym-results" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestDecodeScoreMessage(t *testing.T) {
	sub, err := DecodeScoreMessage([]byte(`{"playerId":"p1","username":"Ash","score":120}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreSubmission{PlayerID: "p1", Username: "Ash", Score: 120}, sub)

	_, err = DecodeScoreMessage([]byte(`{"username":"Ash","score":120}`))
	assert.True(t, domain.IsValidationError(err))

	_, err = DecodeScoreMessage([]byte(`{`))
	assert.Error(t, err)
}

func TestConsumeClaimBatches(t *testing.T) {
	handler := &recordingHandler{}
	consumer := &Consumer{
		config:  &config.KafkaConfig{BatchSize: 2, BatchTimeout: time.Hour},
		handler: handler,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	cgh := &consumerGroupHandler{consumer: consumer}

	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 4)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte(`{"playerId":"p1","username":"Ash","score":10}`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte(`garbage`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: []byte(`{"playerId":"p2","username":"Misty","score":20}`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 4, Value: []byte(`{"playerId":"p3","username":"Brock","score":30}`)}
	close(claim.messages)

	require.NoError(t, cgh.ConsumeClaim(session, claim))

	require.Len(t, handler.batches, 2)
	assert.Len(t, handler.batches[0], 2)
	assert.Equal(t, "p3", handler.batches[1][0].PlayerID)
	assert.Equal(t, []int64{1, 2, 3, 4}, session.marked)
}
