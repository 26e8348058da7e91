package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供世界转播模拟参数的读取与热更新
// GET  /admin/config?arena=arena-1  返回当前配置
// POST /admin/config?arena=arena-1  以 JSON 载荷更新部分字段
func HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	arenaID := r.URL.Query().Get("arena")
	if arenaID == "" {
		arenaID = "arena-1"
	}
	hub := GetArenaManager().GetOrCreate(arenaID)

	type cfg struct {
		RelayDelayMinMs *int     `json:"relayDelayMinMs,omitempty"`
		RelayDelayMaxMs *int     `json:"relayDelayMaxMs,omitempty"`
		RelayDropProb   *float64 `json:"relayDropProb,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.Config())
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cur := hub.Config()
		if body.RelayDelayMinMs != nil {
			cur.RelayDelayMinMs = *body.RelayDelayMinMs
		}
		if body.RelayDelayMaxMs != nil {
			cur.RelayDelayMaxMs = *body.RelayDelayMaxMs
		}
		if body.RelayDropProb != nil {
			cur.RelayDropProb = *body.RelayDropProb
		}
		hub.SetConfig(cur)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: arena=%s delay=[%d,%d] drop=%.2f",
			arenaID, cur.RelayDelayMinMs, cur.RelayDelayMaxMs, cur.RelayDropProb)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出指定世界的运行指标
// GET /metrics?arena=arena-1
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	arenaID := r.URL.Query().Get("arena")
	if arenaID == "" {
		arenaID = "arena-1"
	}
	hub := GetArenaManager().GetOrCreate(arenaID)
	payload := map[string]any{
		"arena":   arenaID,
		"players": hub.Players(),
		"metrics": hub.Metrics().Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
