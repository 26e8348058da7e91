package sim

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cubearena/protocol"
)

// Client 无头客户端：拨号加入世界，按固定频率驱动本地积分器并上报状态，
// 同时把中枢广播套用到镜像世界。世界只在 Run 的循环协程中被触碰
type Client struct {
	id    string
	ws    *websocket.Conn
	world *World
	send  chan []byte
	cmds  chan func(*World)
	quit  chan struct{}
	once  sync.Once
}

// Dial 连接中枢（serverURL 形如 ws://host:8080），以 player 为连接身份，
// 并以 spawn 为初始位置发送 join
func Dial(serverURL, arena, player string, spawn Vec3) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("arena", arena)
	q.Set("player", player)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	c := &Client{
		id:   player,
		ws:   ws,
		send: make(chan []byte, 64),
		cmds: make(chan func(*World), 64),
		quit: make(chan struct{}),
	}
	c.world = NewWorld(player, spawn, c.emit)
	c.emit(protocol.EvtJoin, protocol.PlayerRecord{ID: player, Position: toWire(spawn)})
	return c, nil
}

// ID 连接身份
func (c *Client) ID() string { return c.id }

// Do 在模拟循环内执行一个对世界的操作（设输入、转视角、开火等）
func (c *Client) Do(fn func(*World)) {
	select {
	case c.cmds <- fn:
	case <-c.quit:
	}
}

// Close 主动断开；中枢将据此释放颜色并广播离开
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.quit)
		_ = c.ws.Close()
	})
}

// Run 阻塞运行直到断开或 Close：
// 单循环串行处理入站广播、外部操作与模拟 Tick（与中枢同款的协作式模型）
func (c *Client) Run() error {
	inbox := make(chan protocol.Envelope, 256)
	readErr := make(chan error, 1)
	go c.readLoop(inbox, readErr)
	go c.writeLoop()

	ticker := time.NewTicker(time.Second / TickHz)
	defer ticker.Stop()

	for {
		select {
		case <-c.quit:
			return nil
		case err := <-readErr:
			c.Close()
			return err
		case env := <-inbox:
			c.world.ApplyEnvelope(env, time.Now())
		case fn := <-c.cmds:
			fn(c.world)
		case <-ticker.C:
			now := time.Now()
			c.world.Step()
			c.world.UpdateProjectiles(now)
			c.reportState()
		}
	}
}

func (c *Client) readLoop(inbox chan<- protocol.Envelope, readErr chan<- error) {
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		env, err := protocol.DecodeEnvelope(payload)
		if err != nil {
			continue
		}
		select {
		case inbox <- env:
		case <-c.quit:
			return
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.quit:
			return
		case b := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// emit 编码并压入发送队列（非阻塞，满则丢弃——下个 Tick 会重述状态）
func (c *Client) emit(typ string, payload any) {
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// reportState 每 Tick 把本体位置与视角上报中枢
func (c *Client) reportState() {
	self := c.world.Self()
	c.emit(protocol.EvtMove, protocol.PlayerRecord{
		ID:       c.id,
		Position: toWire(self.Pos),
		Rotation: &protocol.Rotation{X: self.Pitch, Y: self.Yaw},
	})
}
