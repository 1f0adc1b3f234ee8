package app

import (
	"context"
	"os"
	"time"

	"clip_service/internal/pipeline/domain"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

// MockObjectStore 是 ObjectStore 的 Mock
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	args := m.Called(ctx, objectName, filePath, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) DownloadFile(ctx context.Context, objectName, destPath string) error {
	args := m.Called(ctx, objectName, destPath)
	return args.Error(0)
}

// MockRunner 是 media.Runner 的 Mock
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, error) {
	ret := m.Called(ctx, name, args, timeout)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// MockItemRepo 是 ItemRepo 的 Mock
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) AutoMigrate() error {
	return m.Called().Error(0)
}

func (m *MockItemRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.Item)
	return item, args.Error(1)
}

func (m *MockItemRepo) UpdateStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockItemRepo) MarkLive(ctx context.Context, id string, now time.Time) (*domain.Item, error) {
	args := m.Called(ctx, id, now)
	item, _ := args.Get(0).(*domain.Item)
	return item, args.Error(1)
}

func (m *MockItemRepo) UpsertAsset(ctx context.Context, asset *domain.Asset) error {
	return m.Called(ctx, asset).Error(0)
}

func (m *MockItemRepo) ListAssetTypes(ctx context.Context, itemID string) ([]domain.AssetType, error) {
	args := m.Called(ctx, itemID)
	types, _ := args.Get(0).([]domain.AssetType)
	return types, args.Error(1)
}

// MockEventRepo 是 EventRepo 的 Mock
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) PublishStatus(ctx context.Context, event domain.StatusEvent) error {
	return m.Called(ctx, event).Error(0)
}

// MockFetcher 是 ObjectFetcher 的 Mock，成功時寫出假的原始檔
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, storageKey, originalFilename, workDir string) (string, error) {
	args := m.Called(ctx, storageKey, originalFilename, workDir)
	path := args.String(0)
	if path != "" {
		_ = os.WriteFile(path, []byte("ID3 fake audio"), 0o644)
	}
	return path, args.Error(1)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, path string) (AudioInfo, bool) {
	args := m.Called(ctx, path)
	return args.Get(0).(AudioInfo), args.Bool(1)
}

type MockWaveform struct {
	mock.Mock
}

func (m *MockWaveform) Extract(ctx context.Context, src string, duration float64, out string) (*domain.Waveform, error) {
	args := m.Called(ctx, src, duration, out)
	wf, _ := args.Get(0).(*domain.Waveform)
	if wf != nil {
		_ = os.WriteFile(out, []byte(`{"version":1}`), 0o644)
	}
	return wf, args.Error(1)
}

type MockImageRenderer struct {
	mock.Mock
}

func (m *MockImageRenderer) Render(ctx context.Context, wf *domain.Waveform, out string) error {
	err := m.Called(ctx, wf, out).Error(0)
	if err == nil {
		_ = os.WriteFile(out, []byte("png"), 0o644)
	}
	return err
}

type MockVideoRenderer struct {
	mock.Mock
}

func (m *MockVideoRenderer) Render(ctx context.Context, audio string, duration float64, out string) error {
	err := m.Called(ctx, audio, duration, out).Error(0)
	if err == nil {
		_ = os.WriteFile(out, []byte("mp4"), 0o644)
	}
	return err
}

type MockThumbnail struct {
	mock.Mock
}

func (m *MockThumbnail) Resolve(ctx context.Context, req ThumbnailRequest, out string) (string, error) {
	args := m.Called(ctx, req, out)
	if args.Error(1) == nil {
		_ = os.WriteFile(out, []byte("jpg"), 0o644)
	}
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, localPath, itemID, fileName, mimeType string) (domain.PublishedAsset, error) {
	args := m.Called(ctx, localPath, itemID, fileName, mimeType)
	return args.Get(0).(domain.PublishedAsset), args.Error(1)
}

func (m *MockPublisher) URL(storageKey string) string {
	return "https://cdn.test/" + storageKey
}

// MockProcessor 是 JobProcessor 的 Mock
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, job domain.ProcessingJob) (*domain.Result, error) {
	args := m.Called(ctx, job)
	res, _ := args.Get(0).(*domain.Result)
	return res, args.Error(1)
}

// MockRabbitRepo 是 RabbitRepo 的 Mock
type MockRabbitRepo struct {
	mock.Mock
}

func (m *MockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

// MockLocker 是 Locker 的 Mock
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockAcknowledger 是 amqp.Acknowledger 的 Mock
type MockAcknowledger struct {
	mock.Mock
}

func (m *MockAcknowledger) Ack(tag uint64, multiple bool) error {
	return m.Called(tag, multiple).Error(0)
}

func (m *MockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	return m.Called(tag, multiple, requeue).Error(0)
}

func (m *MockAcknowledger) Reject(tag uint64, requeue bool) error {
	return m.Called(tag, requeue).Error(0)
}

// MockChannel 是 AMQPChannel 的 Mock
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	return m.Called(prefetchCount, prefetchSize, global).Error(0)
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return amqp.Queue{Name: name}, ret.Error(0)
}

func (m *MockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	ret := m.Called(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
	ch, _ := ret.Get(0).(chan amqp.Delivery)
	return ch, ret.Error(1)
}
