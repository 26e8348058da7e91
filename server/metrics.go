package server

import (
	"sync/atomic"
)

// HubMetrics 记录中枢运行期的关键指标（用于监控与调试）
type HubMetrics struct {
	JoinsAccepted  int64 // 接受的加入数
	MovesApplied   int64 // 应用并广播的移动数
	SchemaDropped  int64 // 因载荷不合法被静默丢弃的事件数
	StaleDropped   int64 // 因引用不存在的 id 被丢弃的事件数
	SpawnsRelayed  int64 // 转播的子弹生成事件数
	HitsRelayed    int64 // 转播的命中结算事件数
	PlayersLeft    int64 // 离开并释放颜色的玩家数
	BroadcastsSent int64 // 写入发送队列的消息总数
	DropsSimulated int64 // 因模拟丢包被丢弃的转播数
}

func (m *HubMetrics) IncJoin()             { atomic.AddInt64(&m.JoinsAccepted, 1) }
func (m *HubMetrics) IncMove()             { atomic.AddInt64(&m.MovesApplied, 1) }
func (m *HubMetrics) IncSchemaDrop()       { atomic.AddInt64(&m.SchemaDropped, 1) }
func (m *HubMetrics) IncStaleDrop()        { atomic.AddInt64(&m.StaleDropped, 1) }
func (m *HubMetrics) IncSpawn()            { atomic.AddInt64(&m.SpawnsRelayed, 1) }
func (m *HubMetrics) IncHit()              { atomic.AddInt64(&m.HitsRelayed, 1) }
func (m *HubMetrics) IncLeft()             { atomic.AddInt64(&m.PlayersLeft, 1) }
func (m *HubMetrics) AddBroadcast(n int64) { atomic.AddInt64(&m.BroadcastsSent, n) }
func (m *HubMetrics) IncDropSimulated()    { atomic.AddInt64(&m.DropsSimulated, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *HubMetrics) Snapshot() map[string]any {
	return map[string]any{
		"joins_accepted":  atomic.LoadInt64(&m.JoinsAccepted),
		"moves_applied":   atomic.LoadInt64(&m.MovesApplied),
		"schema_dropped":  atomic.LoadInt64(&m.SchemaDropped),
		"stale_dropped":   atomic.LoadInt64(&m.StaleDropped),
		"spawns_relayed":  atomic.LoadInt64(&m.SpawnsRelayed),
		"hits_relayed":    atomic.LoadInt64(&m.HitsRelayed),
		"players_left":    atomic.LoadInt64(&m.PlayersLeft),
		"broadcasts_sent": atomic.LoadInt64(&m.BroadcastsSent),
		"drops_simulated": atomic.LoadInt64(&m.DropsSimulated),
	}
}
