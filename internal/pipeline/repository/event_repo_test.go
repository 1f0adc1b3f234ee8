package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clip_service/internal/pipeline/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func TestKafkaEventRepo_PublishStatus(t *testing.T) {
	writer := new(MockKafkaWriter)
	repo := NewKafkaEventRepo(writer)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := domain.StatusEvent{ItemID: "item-1", Status: domain.ItemLive, PublishedAt: &at, At: at}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "item-1" {
			return false
		}
		var got domain.StatusEvent
		if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
			return false
		}
		return got.Status == domain.ItemLive && got.PublishedAt.Equal(at)
	})).Return(nil).Once()

	require.NoError(t, repo.PublishStatus(context.Background(), event))
	writer.AssertExpectations(t)
}

func TestNopEventRepo(t *testing.T) {
	assert.NoError(t, NewNopEventRepo().PublishStatus(context.Background(), domain.StatusEvent{}))
}
