package server

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"cubearena/protocol"
	"cubearena/sim"
)

// shrinkKeepalive 把保活窗口调小到测试能在一两秒内跨过多个周期
func shrinkKeepalive(t *testing.T) {
	t.Helper()
	oldWait, oldPeriod := pongWait, pingPeriod
	pongWait, pingPeriod = 300*time.Millisecond, 100*time.Millisecond
	t.Cleanup(func() { pongWait, pingPeriod = oldWait, oldPeriod })
}

func TestActiveConnectionSurvivesKeepaliveWindows(t *testing.T) {
	shrinkKeepalive(t)
	wsURL := startTestServer(t)

	c, err := sim.Dial(wsURL, "itest-keepalive", "p1", sim.Vec3{})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	// 持续上报状态的连接跨过多个读超时窗口，不得被服务端掐断
	select {
	case err := <-done:
		t.Fatalf("active connection dropped: %v", err)
	case <-time.After(1200 * time.Millisecond):
	}
}

func TestIdleConnectionKeptAliveByPings(t *testing.T) {
	shrinkKeepalive(t)
	wsURL := startTestServer(t)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?arena=itest-idle&player=p1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	b, err := protocol.Encode(protocol.EvtJoin, protocol.RecordPayload{ID: "p1", Position: &protocol.Vec3{}})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, b))

	msgs := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, m, err := ws.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			msgs <- m
		}
	}()
	select {
	case <-msgs: // 自己的加入广播
	case err := <-readErr:
		t.Fatalf("read: %v", err)
	case <-time.After(time.Second):
		t.Fatal("no join broadcast")
	}

	// join 之后一言不发：读循环里 gorilla 自动回 pong，
	// 静默跨过多个保活窗口后连接必须还活着
	time.Sleep(1200 * time.Millisecond)
	select {
	case err := <-readErr:
		t.Fatalf("idle connection dropped: %v", err)
	default:
	}

	// 服务端记录仍在线：新玩家加入的广播照常送达静默连接
	ws2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?arena=itest-idle&player=p2", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws2.Close() })
	b2, err := protocol.Encode(protocol.EvtJoin, protocol.RecordPayload{ID: "p2", Position: &protocol.Vec3{}})
	require.NoError(t, err)
	require.NoError(t, ws2.WriteMessage(websocket.TextMessage, b2))

	require.Eventually(t, func() bool {
		select {
		case m := <-msgs:
			env, err := protocol.DecodeEnvelope(m)
			if err != nil || env.Type != protocol.EvtPlayerJoined {
				return false
			}
			rec, err := protocol.DecodePayload[protocol.PlayerRecord](env)
			return err == nil && rec.ID == "p2"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestReliableEnqueueSqueezesFullQueue(t *testing.T) {
	c := NewClientConn(nil)
	for i := 0; i < cap(c.send); i++ {
		c.Enqueue([]byte("filler"))
	}
	// 尽力投递：队列满直接丢弃新消息
	c.Enqueue([]byte("best-effort"))
	require.Len(t, c.send, cap(c.send))

	// 不可丢投递：挤掉最旧的一条，消息必须进队
	c.EnqueueReliable([]byte("hit"))
	found := false
	for len(c.send) > 0 {
		if string(<-c.send) == "hit" {
			found = true
		}
	}
	require.True(t, found)
}
