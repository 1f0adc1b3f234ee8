package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"clip_service/pkg/config"
	"clip_service/pkg/logger"

	"go.uber.org/zap"
)

// DefaultPprofAddr pprof listen address
const DefaultPprofAddr = "localhost:6060"

// StartPprof 非 production 環境時啟動 pprof 監控伺服器
func StartPprof(addr string) bool {
	if config.IsProduction() {
		logger.Log.Info("production environment detected, pprof is disabled")
		return false
	}
	if addr == "" {
		addr = DefaultPprofAddr
	}

	go func() {
		logger.Log.Info("starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Warn("pprof server stopped", zap.Error(err))
		}
	}()
	return true
}

// pprof 提供以下分析端點：
// 	•	/debug/pprof/ → 顯示所有可用的分析數據
// 	•	/debug/pprof/goroutine → 顯示所有 Goroutines
// 	•	/debug/pprof/heap → 顯示記憶體分配
// 	•	/debug/pprof/profile → 執行 30 秒 CPU 分析
//
// 例：長時間 ffmpeg job 期間觀察 goroutine 數量
// ```
// go tool pprof http://localhost:6060/debug/pprof/goroutine
// ```
