package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// QueueName definition queue name
	QueueName = "clip.process"

	// HeaderAttempt AMQP header carrying the 1-based attempt number
	HeaderAttempt = "x-attempt"
	// HeaderError AMQP header carrying the last error of a parked job
	HeaderError = "x-error"
)

// ErrInvalidItemID item id cannot name a directory under the work root
var ErrInvalidItemID = errors.New("invalid item_id")

// ProcessingJob 上傳處理工作訊息
type ProcessingJob struct {
	ItemID           string `json:"item_id"`
	StorageKey       string `json:"storage_key"`       // 原始檔在 object store 上的 key
	OriginalFilename string `json:"original_filename"` // 用來決定副檔名

	// optional, used by the thumbnail chain
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
}

// JobID deterministic job identifier, one in-flight job per item
func JobID(itemID string) string {
	return "process-" + itemID
}

// ID job identifier of this job
func (j ProcessingJob) ID() string {
	return JobID(j.ItemID)
}

// Validate required fields
func (j ProcessingJob) Validate() error {
	if strings.TrimSpace(j.ItemID) == "" {
		return errors.New("item_id is required")
	}
	if err := ValidateItemID(j.ItemID); err != nil {
		return err
	}
	if strings.TrimSpace(j.StorageKey) == "" {
		return errors.New("storage_key is required")
	}
	return nil
}

// ValidateItemID item id is used as a single path segment of the job work dir
func ValidateItemID(id string) error {
	if id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}
	return nil
}

// QueueNames work queue with its retry (delay) and failed (parking) queues
type QueueNames struct {
	Work   string
	Retry  string
	Failed string
}

// NewQueueNames derive queue names from the work queue name
func NewQueueNames(work string) QueueNames {
	if work == "" {
		work = QueueName
	}
	return QueueNames{
		Work:   work,
		Retry:  work + ".retry",
		Failed: work + ".failed",
	}
}
