package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"clip_service/internal/pipeline/domain"
	"clip_service/pkg/database"
)

// Publisher upload generated artifacts under {namespace}/{itemID}/{fileName}
type Publisher struct {
	store      database.ObjectStore
	namespace  string
	cdnBaseURL string
	timeout    time.Duration
}

// NewPublisher create Publisher, timeout bounds one upload (0 = no limit)
func NewPublisher(store database.ObjectStore, namespace, cdnBaseURL string, timeout time.Duration) *Publisher {
	return &Publisher{
		store:      store,
		namespace:  strings.Trim(namespace, "/"),
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
		timeout:    timeout,
	}
}

// StorageKey deterministic key of an asset file
func (p *Publisher) StorageKey(itemID, fileName string) string {
	return path.Join(p.namespace, itemID, fileName)
}

// URL public url of storageKey
func (p *Publisher) URL(storageKey string) string {
	if p.cdnBaseURL == "" {
		return "/" + storageKey
	}
	return p.cdnBaseURL + "/" + storageKey
}

// Publish upload localPath and report where it landed
func (p *Publisher) Publish(ctx context.Context, localPath, itemID, fileName, mimeType string) (domain.PublishedAsset, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return domain.PublishedAsset{}, fmt.Errorf("stat %s: %w", localPath, err)
	}

	key := p.StorageKey(itemID, fileName)
	ctx, cancel := withTransferTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.store.UploadFile(ctx, key, localPath, mimeType); err != nil {
		return domain.PublishedAsset{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return domain.PublishedAsset{
		StorageKey: key,
		CDNURL:     p.URL(key),
		SizeBytes:  info.Size(),
	}, nil
}
