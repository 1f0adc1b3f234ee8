package domain

import (
	"sort"
	"time"
)

// ItemStatus definition item status
type ItemStatus string

const (
	// ItemProcessing upload is being processed
	ItemProcessing ItemStatus = "processing"
	// ItemLive published and visible
	ItemLive ItemStatus = "live"
	// ItemFailed processing failed
	ItemFailed ItemStatus = "failed"
	// ItemRemoved taken down
	ItemRemoved ItemStatus = "removed"
)

// Item 上傳的音訊內容，由產品層擁有，pipeline 只修改 Status 與 PublishedAt
type Item struct {
	ID          string     `gorm:"primaryKey;type:text"`
	Status      ItemStatus `gorm:"type:text;index;not null;default:processing"`
	PublishedAt *time.Time
	PlayCount   int64 `gorm:"not null;default:0"`
	ShareCount  int64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssetType closed set of asset types
type AssetType string

const (
	// AssetOriginal the uploaded source object
	AssetOriginal AssetType = "original"
	// AssetWaveform waveform json
	AssetWaveform AssetType = "waveform_json"
	// AssetOGImage social preview image
	AssetOGImage AssetType = "og_image"
	// AssetTeaser preview video
	AssetTeaser AssetType = "teaser_mp4"
	// AssetThumbnail square thumbnail
	AssetThumbnail AssetType = "thumbnail"
)

// RequiredAssetTypes an item may go live only when all of these exist
var RequiredAssetTypes = []AssetType{AssetWaveform, AssetOGImage, AssetTeaser}

// Asset 衍生或原始檔案，一個 item 每種 type 最多一筆
type Asset struct {
	ID         uint      `gorm:"primaryKey"`
	ItemID     string    `gorm:"type:text;not null;uniqueIndex:idx_assets_item_type"`
	AssetType  AssetType `gorm:"type:text;not null;uniqueIndex:idx_assets_item_type"`
	StorageKey string    `gorm:"type:text;not null"`
	CDNURL     string    `gorm:"column:cdn_url;type:text;not null"`
	MimeType   string    `gorm:"type:text;not null"`
	SizeBytes  int64     `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PublishedAsset result of uploading one artifact
type PublishedAsset struct {
	StorageKey string `json:"storage_key"`
	CDNURL     string `json:"cdn_url"`
	SizeBytes  int64  `json:"size_bytes"`
}

// MissingRequired required asset types not present in have, sorted
func MissingRequired(have []AssetType) []AssetType {
	present := make(map[AssetType]struct{}, len(have))
	for _, t := range have {
		present[t] = struct{}{}
	}
	var missing []AssetType
	for _, t := range RequiredAssetTypes {
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// Result outcome of one successful processing attempt
type Result struct {
	ItemID      string        `json:"item_id"`
	Status      ItemStatus    `json:"status"`
	PublishedAt *time.Time    `json:"published_at"`
	Assets      []ResultAsset `json:"assets"`
	Duration    time.Duration `json:"duration"`
}

// ResultAsset asset produced by the attempt
type ResultAsset struct {
	AssetType AssetType `json:"asset_type"`
	PublishedAsset
}

// Waveform waveform json document
type Waveform struct {
	Version          int       `json:"version"`
	SampleRate       int       `json:"sampleRate"`
	SamplesPerSecond int       `json:"samplesPerSecond"`
	Duration         float64   `json:"duration"`
	Peaks            []float64 `json:"peaks"`
}

// StatusEvent emitted on every live / failed transition
type StatusEvent struct {
	ItemID      string     `json:"item_id"`
	Status      ItemStatus `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	At          time.Time  `json:"at"`
}
