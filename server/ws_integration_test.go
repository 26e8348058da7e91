package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cubearena/sim"
)

// 端到端：真实 WebSocket 链路上，两个无头客户端互见镜像、互收命中结算

func startTestServer(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", HandleWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialClient(t *testing.T, wsURL, arena, player string, spawn sim.Vec3) *sim.Client {
	t.Helper()
	c, err := sim.Dial(wsURL, arena, player, spawn)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	go c.Run()
	return c
}

// queryWorld 串行进入模拟循环读世界状态
func queryWorld[T any](c *sim.Client, fn func(*sim.World) T) T {
	res := make(chan T, 1)
	c.Do(func(w *sim.World) { res <- fn(w) })
	select {
	case v := <-res:
		return v
	case <-time.After(time.Second):
		var zero T
		return zero
	}
}

func TestEndToEndMirrorsAndColors(t *testing.T) {
	wsURL := startTestServer(t)

	c1 := dialClient(t, wsURL, "itest-mirrors", "p1", sim.Vec3{X: 5})
	c2 := dialClient(t, wsURL, "itest-mirrors", "p2", sim.Vec3{X: -5})

	// 双方都认领到中枢签发的颜色
	require.Eventually(t, func() bool {
		return queryWorld(c1, func(w *sim.World) string { return w.Self().Color }) != ""
	}, 2*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return queryWorld(c2, func(w *sim.World) string { return w.Self().Color }) != ""
	}, 2*time.Second, 20*time.Millisecond)

	// 互相出现在对方的镜像世界里（回填 + 广播两条路径）
	hasEntity := func(c *sim.Client, id string) bool {
		return queryWorld(c, func(w *sim.World) bool {
			_, ok := w.Entity(id)
			return ok
		})
	}
	require.Eventually(t, func() bool { return hasEntity(c1, "p2") }, 2*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return hasEntity(c2, "p1") }, 2*time.Second, 20*time.Millisecond)

	// p1 的移动经中枢转播后出现在 p2 的镜像上
	c1.Do(func(w *sim.World) { w.Self().Pos = sim.Vec3{X: 9, Z: 3} })
	require.Eventually(t, func() bool {
		pos := queryWorld(c2, func(w *sim.World) sim.Vec3 {
			e, ok := w.Entity("p1")
			if !ok {
				return sim.Vec3{}
			}
			return e.Pos
		})
		return pos.Z > 2.5
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEndToEndHitRelay(t *testing.T) {
	wsURL := startTestServer(t)

	c1 := dialClient(t, wsURL, "itest-hit", "p1", sim.Vec3{X: 5})
	c2 := dialClient(t, wsURL, "itest-hit", "p2", sim.Vec3{X: -5})

	require.Eventually(t, func() bool {
		return queryWorld(c1, func(w *sim.World) bool {
			_, ok := w.Entity("p2")
			return ok && w.Self().Color != ""
		})
	}, 2*time.Second, 20*time.Millisecond)

	// 预先算出期望混色，再让 p1 朝 p2 的镜像实打一发
	colors := make(chan [2]string, 1)
	c1.Do(func(w *sim.World) {
		e, _ := w.Entity("p2")
		colors <- [2]string{e.Color, w.Self().Color}
	})
	pair := <-colors
	want := sim.MixHex(pair[0], pair[1])
	require.NotEmpty(t, want)

	c1.Do(func(w *sim.World) {
		// 对准 -X 方向的 p2 镜像开火；后续 Tick 里弹道自行结算命中并上报
		w.Self().Yaw = -math.Pi / 2
		w.Shoot(time.Now())
	})

	require.Eventually(t, func() bool {
		return queryWorld(c2, func(w *sim.World) string { return w.Self().Color }) == want
	}, 2*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return queryWorld(c1, func(w *sim.World) string {
			e, ok := w.Entity("p2")
			if !ok {
				return ""
			}
			return e.Color
		}) == want
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEndToEndLeaveRemovesMirror(t *testing.T) {
	wsURL := startTestServer(t)

	c1 := dialClient(t, wsURL, "itest-leave", "p1", sim.Vec3{})
	c2 := dialClient(t, wsURL, "itest-leave", "p2", sim.Vec3{X: 3})

	require.Eventually(t, func() bool {
		return queryWorld(c1, func(w *sim.World) bool {
			_, ok := w.Entity("p2")
			return ok
		})
	}, 2*time.Second, 20*time.Millisecond)

	c2.Close()
	require.Eventually(t, func() bool {
		return !queryWorld(c1, func(w *sim.World) bool {
			_, ok := w.Entity("p2")
			return ok
		})
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDuplicatePlayerIDRejectedOnDial(t *testing.T) {
	wsURL := startTestServer(t)

	_ = dialClient(t, wsURL, "itest-dup", "p1", sim.Vec3{})
	time.Sleep(50 * time.Millisecond)
	_, err := sim.Dial(wsURL, "itest-dup", "p1", sim.Vec3{})
	require.Error(t, err)
}
