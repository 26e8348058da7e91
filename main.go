package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cubearena/server"
)

// CubeArena 入口：启动 HTTP + WebSocket 服务，并初始化世界管理器
func main() {
	// 可选的 .env 配置（ADDR / LOG_FILE / LOG_LEVEL），命令行参数优先
	_ = godotenv.Load()

	var addr, logFile, logLevel string
	flag.StringVar(&addr, "addr", envOr("ADDR", ":8080"), "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", envOr("LOG_FILE", "app.log"), "log file path")
	flag.StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug/info/warn/error")
	flag.Parse()

	// 使用第三方 zap 日志库写入文件（带滚动）
	if err := server.InitLogger(logFile, logLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	am := server.GetArenaManager()
	// 先预创建一个默认世界，便于快速试跑
	_ = am.GetOrCreate("arena-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", server.HandleAdminConfig)
	mux.HandleFunc("/metrics", server.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("CubeArena listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
