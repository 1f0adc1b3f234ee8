package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pipeline definition pipeline_service YAML structure
type Pipeline struct {
	IP        string `mapstructure:"ip"`
	Port      string `mapstructure:"port"`
	AdminPort string `mapstructure:"admin_port"`

	Concurrency int    `mapstructure:"concurrency"`
	WorkDir     string `mapstructure:"work_dir"`

	Retry   RetryConfig   `mapstructure:"retry"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Media   MediaConfig   `mapstructure:"media"`
	Storage StorageConfig `mapstructure:"storage"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
}

// Trending definition trending_service YAML structure
type Trending struct {
	AdminPort string `mapstructure:"admin_port"`
	// AdminSecret HS256 key for operator tokens, empty disables auth
	AdminSecret string `mapstructure:"admin_secret"`

	// Schedule robfig/cron spec, e.g. "@every 15m"
	Schedule string        `mapstructure:"schedule"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Mongo      MongoConfig    `mapstructure:"mongo"`
}

// Ctl definition clipctl YAML structure
type Ctl struct {
	Retry       RetryConfig `mapstructure:"retry"`
	AdminSecret string      `mapstructure:"admin_secret"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Mongo      MongoConfig    `mapstructure:"mongo"`

	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// RetryConfig definition broker retry policy
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	JobLockTTL  time.Duration `mapstructure:"job_lock_ttl"`
}

// AssetsConfig definition where derived assets are published
type AssetsConfig struct {
	Namespace  string `mapstructure:"namespace"`
	CDNBaseURL string `mapstructure:"cdn_base_url"`
}

// MediaConfig definition external tools and render setting
type MediaConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	YtDlpPath   string `mapstructure:"ytdlp_path"`

	BackgroundImage string `mapstructure:"background_image"`
	BackgroundColor string `mapstructure:"background_color"`
	WaveColor       string `mapstructure:"wave_color"`

	SampleRate       int `mapstructure:"sample_rate"`
	TeaserMaxSeconds int `mapstructure:"teaser_max_seconds"`
	ThumbnailSize    int `mapstructure:"thumbnail_size"`

	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	TranscodeTimeout time.Duration `mapstructure:"transcode_timeout"`
	EncodeTimeout    time.Duration `mapstructure:"encode_timeout"`
	DownloadTimeout  time.Duration `mapstructure:"download_timeout"`
}

// StorageConfig definition object store backend
type StorageConfig struct {
	// Driver "minio" or "s3"
	Driver string      `mapstructure:"driver"`
	MinIO  MinIOConfig `mapstructure:"minio"`
	S3     S3Config    `mapstructure:"s3"`

	// TransferTimeout upper bound of one object download or upload
	TransferTimeout time.Duration `mapstructure:"transfer_timeout"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	BucketName    string `mapstructure:"bucket_name"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// S3Config definition aws s3 (or s3 compatible) setting
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP            string `mapstructure:"ip"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Queue         string `mapstructure:"queue"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	RedisDB  int    `mapstructure:"redis_db"`
}

// KafkaConfig definition kafka setting, empty Brokers disables events
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// MongoConfig definition mongo setting, empty URI disables run reports
type MongoConfig struct {
	URI           string `mapstructure:"uri"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// DSN postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		d.Host, d.User, d.Password, d.Database, d.Port)
}

// URL amqp connection url
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.IP, r.Port)
}

// WithDefaults fill zero values with the pipeline defaults
func (p Pipeline) WithDefaults() Pipeline {
	if p.Port == "" {
		p.Port = "50051"
	}
	if p.AdminPort == "" {
		p.AdminPort = "8090"
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 5
	}
	if p.WorkDir == "" {
		p.WorkDir = filepath.Join(os.TempDir(), "clip_pipeline")
	}
	if p.Assets.Namespace == "" {
		p.Assets.Namespace = "assets"
	}
	if p.Storage.Driver == "" {
		p.Storage.Driver = "minio"
	}
	if p.Storage.TransferTimeout <= 0 {
		p.Storage.TransferTimeout = 5 * time.Minute
	}
	if p.RabbitMQ.Queue == "" {
		p.RabbitMQ.Queue = "clip.process"
	}
	if p.Kafka.Topic == "" {
		p.Kafka.Topic = "clip.status"
	}
	p.Retry = p.Retry.WithDefaults()
	p.Media = p.Media.WithDefaults()
	return p
}

// WithDefaults fill zero values with the trending defaults
func (t Trending) WithDefaults() Trending {
	if t.AdminPort == "" {
		t.AdminPort = "8091"
	}
	if t.Schedule == "" {
		t.Schedule = "@every 15m"
	}
	if t.LockTTL <= 0 {
		t.LockTTL = 10 * time.Minute
	}
	if t.Mongo.Database == "" {
		t.Mongo.Database = "clip"
	}
	return t
}

// WithDefaults fill zero values with the clipctl defaults
func (c Ctl) WithDefaults() Ctl {
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "clip.process"
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Minute
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "clip"
	}
	c.Retry = c.Retry.WithDefaults()
	return c
}

// WithDefaults fill zero values with the retry defaults
func (r RetryConfig) WithDefaults() RetryConfig {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 3
	}
	if r.BaseDelay <= 0 {
		r.BaseDelay = 5 * time.Second
	}
	if r.JobLockTTL <= 0 {
		r.JobLockTTL = 30 * time.Minute
	}
	return r
}

// WithDefaults fill zero values with the media defaults
func (m MediaConfig) WithDefaults() MediaConfig {
	if m.FFmpegPath == "" {
		m.FFmpegPath = "ffmpeg"
	}
	if m.FFprobePath == "" {
		m.FFprobePath = "ffprobe"
	}
	if m.YtDlpPath == "" {
		m.YtDlpPath = "yt-dlp"
	}
	if m.BackgroundColor == "" {
		m.BackgroundColor = "#1b1b2f"
	}
	if m.WaveColor == "" {
		m.WaveColor = "#ffffff"
	}
	if m.SampleRate <= 0 {
		m.SampleRate = 8000
	}
	if m.TeaserMaxSeconds <= 0 {
		m.TeaserMaxSeconds = 5
	}
	if m.ThumbnailSize <= 0 {
		m.ThumbnailSize = 400
	}
	if m.ProbeTimeout <= 0 {
		m.ProbeTimeout = 30 * time.Second
	}
	if m.TranscodeTimeout <= 0 {
		m.TranscodeTimeout = 2 * time.Minute
	}
	if m.EncodeTimeout <= 0 {
		m.EncodeTimeout = 3 * time.Minute
	}
	if m.DownloadTimeout <= 0 {
		m.DownloadTimeout = 30 * time.Second
	}
	return m
}
