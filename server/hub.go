package server

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cubearena/protocol"
)

// Conn 面向中枢的连接发送端抽象（测试可注入假连接）
// Enqueue 尽力投递（队列满可丢）；EnqueueReliable 用于没有后续重述的事件
type Conn interface {
	Enqueue(b []byte)
	EnqueueReliable(b []byte)
	Close()
}

// 入站指令：全部经由 inbox 串行处理，
// 保证登记表与配色器的修改不会交错进行
type reserveCmd struct {
	id    string
	reply chan<- bool
}

type attachCmd struct {
	id   string
	conn Conn
}

type detachCmd struct{ id string }

type eventCmd struct {
	id  string
	env protocol.Envelope
}

// RelayConfig 子弹转播的网络模拟参数（可热更新）
// 仅作用于 spawn-projectile 转播；命中结算是耐久事实，永不延迟或丢弃
type RelayConfig struct {
	RelayDelayMinMs int     `json:"relayDelayMinMs"`
	RelayDelayMaxMs int     `json:"relayDelayMaxMs"`
	RelayDropProb   float64 `json:"relayDropProb"`
}

// Hub 转播中枢：接收各连接事件，串行修改登记表与配色器并把结果转播出去
// 一个 Hub 即一个独立世界（arena）
type Hub struct {
	Name string

	inbox       chan any
	quit        chan struct{}
	conns       map[string]Conn // 含占位（nil）：已预定 id 但尚未完成升级
	reg         *Registry
	colors      *ColorAllocator
	metrics     *HubMetrics
	rng         *rand.Rand
	playerCount int64

	cfgMu sync.Mutex
	cfg   RelayConfig

	OnEmpty func(name string) // 最后一个连接断开时回调
}

func NewHub(name string) *Hub {
	return &Hub{
		Name:    name,
		inbox:   make(chan any, 256), // 足够缓冲，避免网络读阻塞事件处理
		quit:    make(chan struct{}),
		conns:   make(map[string]Conn),
		reg:     NewRegistry(),
		colors:  NewColorAllocator(),
		metrics: &HubMetrics{},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run 事件循环：每条指令处理完毕才取下一条
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			return
		case cmd := <-h.inbox:
			switch c := cmd.(type) {
			case reserveCmd:
				c.reply <- h.handleReserve(c.id)
			case attachCmd:
				h.conns[c.id] = c.conn
			case detachCmd:
				h.handleDetach(c.id)
			case eventCmd:
				h.handleEvent(c.id, c.env)
			}
		}
	}
}

// Stop 终止事件循环（由管理器在世界清空后调用）
func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) post(cmd any) {
	select {
	case h.inbox <- cmd:
	case <-h.quit:
	}
}

// Reserve 为连接预定 id；同名 id 已在线则拒绝，保证一个 id 至多一条记录
func (h *Hub) Reserve(id string) bool {
	reply := make(chan bool, 1)
	select {
	case h.inbox <- reserveCmd{id: id, reply: reply}:
		return <-reply
	case <-h.quit:
		return false
	}
}

// Attach 绑定完成升级的连接
func (h *Hub) Attach(id string, conn Conn) {
	h.post(attachCmd{id: id, conn: conn})
}

// Detach 连接断开：移除记录、释放颜色并广播离开
func (h *Hub) Detach(id string) {
	h.post(detachCmd{id: id})
}

// Dispatch 投递一条入站事件
func (h *Hub) Dispatch(id string, env protocol.Envelope) {
	h.post(eventCmd{id: id, env: env})
}

// Players 当前在线记录数（供监控接口读取）
func (h *Hub) Players() int {
	return int(atomic.LoadInt64(&h.playerCount))
}

// Metrics 指标入口
func (h *Hub) Metrics() *HubMetrics { return h.metrics }

// Config 读取当前转播模拟参数
func (h *Hub) Config() RelayConfig {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	return h.cfg
}

// SetConfig 热更新转播模拟参数
func (h *Hub) SetConfig(cfg RelayConfig) {
	h.cfgMu.Lock()
	h.cfg = cfg
	h.cfgMu.Unlock()
}

func (h *Hub) handleReserve(id string) bool {
	if id == "" {
		return false
	}
	if _, taken := h.conns[id]; taken {
		return false
	}
	h.conns[id] = nil
	return true
}

func (h *Hub) handleEvent(id string, env protocol.Envelope) {
	switch env.Type {
	case protocol.EvtJoin:
		h.handleJoin(id, env)
	case protocol.EvtMove:
		h.handleMove(id, env)
	case protocol.EvtSpawn:
		h.handleSpawn(id, env)
	case protocol.EvtHit:
		h.handleHit(id, env)
	default:
		// 未知事件按 Schema 违例处理：静默丢弃，只记日志
		h.metrics.IncSchemaDrop()
		Log.Debugf("arena=%s drop unknown event type=%q from=%s", h.Name, env.Type, id)
	}
}

// handleJoin 接受加入：颜色一律由配色器签发，客户端建议被覆盖
// 顺序约定：先把新记录广播给全员（含加入者本人），再把既有记录逐条回填给新连接
func (h *Hub) handleJoin(id string, env protocol.Envelope) {
	p, err := protocol.DecodePayload[protocol.RecordPayload](env)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		h.metrics.IncSchemaDrop()
		Log.Debugf("arena=%s drop malformed join from=%s: %v", h.Name, id, err)
		return
	}
	if rec, ok := h.reg.Get(id); ok {
		// 同一连接的重复 join 退化为移动：接收端对重复加入本就幂等
		h.applyMove(rec, &p)
		return
	}

	rec := &protocol.PlayerRecord{
		ID:       id, // 连接身份覆盖载荷自报的 id
		Position: *p.Position,
		Rotation: p.Rotation,
		Color:    h.colors.Allocate(),
	}
	h.reg.Put(rec)
	atomic.StoreInt64(&h.playerCount, int64(h.reg.Len()))
	h.metrics.IncJoin()
	Log.Infof("arena=%s join id=%s color=%s players=%d", h.Name, id, rec.Color, h.reg.Len())

	h.broadcast(protocol.EvtPlayerJoined, rec)
	if c := h.conns[id]; c != nil {
		h.reg.Each(func(other *protocol.PlayerRecord) {
			if other.ID == id {
				return
			}
			if b, err := protocol.Encode(protocol.EvtPlayerJoined, other); err == nil {
				c.Enqueue(b)
				h.metrics.AddBroadcast(1)
			}
		})
	}
}

func (h *Hub) handleMove(id string, env protocol.Envelope) {
	p, err := protocol.DecodePayload[protocol.RecordPayload](env)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		h.metrics.IncSchemaDrop()
		Log.Debugf("arena=%s drop malformed move from=%s: %v", h.Name, id, err)
		return
	}
	rec, ok := h.reg.Get(id)
	if !ok {
		// 移动先于 join 到达的竞态：静默丢弃
		h.metrics.IncStaleDrop()
		Log.Debugf("arena=%s drop move for unknown id=%s", h.Name, id)
		return
	}
	h.applyMove(rec, &p)
}

// applyMove 位置整体替换；旋转仅在载荷携带时替换（缺省保留旧值）
// 更新后把完整记录广播给所有连接（含发起者），便于客户端做回声校正
func (h *Hub) applyMove(rec *protocol.PlayerRecord, p *protocol.RecordPayload) {
	rec.Position = *p.Position
	if p.Rotation != nil {
		rec.Rotation = p.Rotation
	}
	h.metrics.IncMove()
	h.broadcast(protocol.EvtPlayerMoved, rec)
}

// handleSpawn 子弹生成：以连接身份盖章射手后转播给其余连接
// （发射者本地已有副本，不回发）；受转播模拟参数影响
func (h *Hub) handleSpawn(id string, env protocol.Envelope) {
	p, err := protocol.DecodePayload[protocol.SpawnPayload](env)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		h.metrics.IncSchemaDrop()
		Log.Debugf("arena=%s drop malformed spawn from=%s: %v", h.Name, id, err)
		return
	}
	if _, ok := h.reg.Get(id); !ok {
		// 从未 join 的连接不能开火
		h.metrics.IncStaleDrop()
		Log.Debugf("arena=%s drop spawn before join from=%s", h.Name, id)
		return
	}
	p.Shooter = id

	b, err := protocol.Encode(protocol.EvtProjectile, p)
	if err != nil {
		return
	}
	targets := make([]Conn, 0, len(h.conns))
	for cid, c := range h.conns {
		if cid == id || c == nil {
			continue
		}
		targets = append(targets, c)
	}

	cfg := h.Config()
	if cfg.RelayDropProb > 0 && h.rng.Float64() < cfg.RelayDropProb {
		h.metrics.IncDropSimulated()
		return
	}
	h.metrics.IncSpawn()
	send := func() {
		for _, c := range targets {
			c.Enqueue(b)
		}
	}
	if d := h.relayDelay(cfg); d > 0 {
		time.AfterFunc(d, send)
	} else {
		send()
	}
	h.metrics.AddBroadcast(int64(len(targets)))
}

// handleHit 命中结算：原样转播给所有连接（含发起者），接收端幂等套用
// 目标 id 已无在线记录则整体丢弃；登记表中的颜色不随命中改变，
// 记录终生持有配色器签发的那一个字符串，断开时才好精确归还
func (h *Hub) handleHit(id string, env protocol.Envelope) {
	p, err := protocol.DecodePayload[protocol.HitPayload](env)
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		h.metrics.IncSchemaDrop()
		Log.Debugf("arena=%s drop malformed hit from=%s: %v", h.Name, id, err)
		return
	}
	if _, ok := h.reg.Get(p.PlayerID); !ok {
		h.metrics.IncStaleDrop()
		Log.Debugf("arena=%s drop hit for unknown id=%s", h.Name, p.PlayerID)
		return
	}
	h.metrics.IncHit()
	h.broadcastReliable(protocol.EvtPlayerHit, p)
}

func (h *Hub) handleDetach(id string) {
	conn, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	if conn != nil {
		conn.Close()
	}
	if rec, had := h.reg.Remove(id); had {
		atomic.StoreInt64(&h.playerCount, int64(h.reg.Len()))
		h.colors.Release(rec.Color)
		h.metrics.IncLeft()
		Log.Infof("arena=%s leave id=%s released=%s players=%d", h.Name, id, rec.Color, h.reg.Len())
		h.broadcast(protocol.EvtPlayerLeft, protocol.LeftPayload{ID: id})
	}
	if len(h.conns) == 0 && h.OnEmpty != nil {
		h.OnEmpty(h.Name)
	}
}

// broadcast 编码一次，写入所有已绑定连接的发送队列
func (h *Hub) broadcast(typ string, payload any) {
	h.fanout(typ, payload, false)
}

// broadcastReliable 命中结算走不可丢路径：接收端没有后续重述可纠偏
func (h *Hub) broadcastReliable(typ string, payload any) {
	h.fanout(typ, payload, true)
}

func (h *Hub) fanout(typ string, payload any, reliable bool) {
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		return
	}
	var n int64
	for _, c := range h.conns {
		if c == nil {
			continue
		}
		if reliable {
			c.EnqueueReliable(b)
		} else {
			c.Enqueue(b)
		}
		n++
	}
	h.metrics.AddBroadcast(n)
}

func (h *Hub) relayDelay(cfg RelayConfig) time.Duration {
	if cfg.RelayDelayMaxMs <= 0 {
		return 0
	}
	min, max := cfg.RelayDelayMinMs, cfg.RelayDelayMaxMs
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	ms := min
	if max > min {
		ms += h.rng.Intn(max - min + 1)
	}
	return time.Duration(ms) * time.Millisecond
}
