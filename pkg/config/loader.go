package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo 集合服務名稱與路徑 from .env
type EnvInfo struct {
	// service name (也是 yaml 檔名)
	Pipeline string
	Trending string
	Ctl      string

	// service yaml path
	PipelineYAMLPath string
	TrendingYAMLPath string
	CtlYAMLPath      string

	// service log path
	PipelineLogPath string
	TrendingLogPath string
	CtlLogPath      string
}

// EnvConfig 集合服務設定
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {
		path, err := GetPath(".env", 5)
		if err != nil {
			log.Printf("Warning: Could not get .env path: %v", err)
		}

		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			Pipeline: valueOrDefault(os.Getenv("PIPELINE_SERVICE"), "pipeline_service"),
			Trending: valueOrDefault(os.Getenv("TRENDING_SERVICE"), "trending_service"),
			Ctl:      valueOrDefault(os.Getenv("CLIPCTL"), "clipctl"),

			PipelineYAMLPath: valueOrDefault(os.Getenv("PIPELINE_SERVICE_YAML"), "./config"),
			TrendingYAMLPath: valueOrDefault(os.Getenv("TRENDING_SERVICE_YAML"), "./config"),
			CtlYAMLPath:      valueOrDefault(os.Getenv("CLIPCTL_YAML"), "./config"),

			PipelineLogPath: valueOrDefault(os.Getenv("PIPELINE_SERVICE_LOG"), "./logs/pipeline"),
			TrendingLogPath: valueOrDefault(os.Getenv("TRENDING_SERVICE_LOG"), "./logs/trending"),
			CtlLogPath:      valueOrDefault(os.Getenv("CLIPCTL_LOG"), "./logs/clipctl"),
		}
	})

	return envConfig
}

// IsProduction check run env
func IsProduction() bool {
	return env == "production"
}

// IsLocal check run env
func IsLocal() bool {
	return env == "local"
}

// LoadConfig 加載配置，失敗直接結束程式
func LoadConfig[T any](serviceName string, configPath string) T {
	cfg, err := ReadConfig[T](serviceName, configPath)
	if err != nil {
		log.Fatalf("Error loading config [%s]: %v", serviceName, err)
	}
	return cfg
}

// ReadConfig 讀取 {configPath}/{serviceName}.yaml，${} 占位符以環境變數展開
func ReadConfig[T any](serviceName string, configPath string) (T, error) {
	var cfg T

	v := viper.New()
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		return cfg, fmt.Errorf("read raw config file: %w", err)
	}

	// 替換 ${} 占位符為環境變數的值
	expandedConfig := os.ExpandEnv(string(rawConfig))
	if err := v.ReadConfig(bytes.NewBufferString(expandedConfig)); err != nil {
		return cfg, fmt.Errorf("read expanded config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + " can't find path")
}

func valueOrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
