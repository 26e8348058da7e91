package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cubearena/protocol"
)

// 保活参数：写泵每 pingPeriod 发一次 ping，读端在 pongWait 内
// 未收到 pong 即判定对端已死（测试会临时调小窗口）
var (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // 必须小于 pongWait
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃消息（防止慢连接阻塞中枢）
	}
}

// Close 关闭发送队列与底层连接
func (c *ClientConn) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.ws.Close()
}

// EnqueueReliable 不可丢消息（命中结算）的入队：
// 队列满时挤掉最旧的一条尽力投递消息腾位，而不是丢弃新消息
// （被挤掉的移动/子弹广播随后都有新事件重述，命中没有）
func (c *ClientConn) EnqueueReliable(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.send <- b:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
// 周期性发 ping 维持读端的保活判定（对端由 gorilla 默认处理器自动回 pong）
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，解出信封后投递给中枢
func (c *ClientConn) readPump(hub *Hub, playerID string) {
	defer c.ws.Close()
	// 读泵退出即视为断开：在中枢事件循环中移除记录、释放颜色
	defer hub.Detach(playerID)
	c.ws.SetReadLimit(1 << 20) // 1MB
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.DecodeEnvelope(payload)
		if err != nil {
			// 信封都解不开的消息直接丢弃，不打扰中枢
			hub.Metrics().IncSchemaDrop()
			continue
		}
		hub.Dispatch(playerID, env)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?arena=arena-1&player=alice
// player 即连接身份，同名在线直接拒绝，保证一个 id 至多一条记录
func HandleWS(w http.ResponseWriter, r *http.Request) {
	arenaID := r.URL.Query().Get("arena")
	if arenaID == "" {
		arenaID = "arena-1"
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}

	am := GetArenaManager()
	hub := am.GetOrCreate(arenaID)

	if !hub.Reserve(playerID) {
		http.Error(w, "player id already connected", http.StatusConflict)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		hub.Detach(playerID)
		return
	}

	client := NewClientConn(ws)
	hub.Attach(playerID, client)

	go client.writePump()
	go client.readPump(hub, playerID)
}
