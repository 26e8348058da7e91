package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cubearena/server"
	"cubearena/sim"
)

// 漫游机器人：连上中枢加入世界，随机走动、转视角、偶尔开火
// 用于给演示环境充人气，也顺带端到端地跑通客户端模拟
func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080", "hub base url")
		arena     = flag.String("arena", "arena-1", "arena name")
		name      = flag.String("name", fmt.Sprintf("bot-%04d", rand.Intn(10000)), "player id")
		logFile   = flag.String("log", "bot.log", "log file path")
	)
	flag.Parse()

	if err := server.InitLogger(*logFile, "info"); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	spawn := sim.Vec3{
		X: (rand.Float64()*2 - 1) * (sim.WorldWidth/2 - 10),
		Z: (rand.Float64()*2 - 1) * (sim.WorldDepth/2 - 10),
	}
	client, err := sim.Dial(*serverURL, *arena, *name, spawn)
	if err != nil {
		server.Log.Fatalf("dial: %v", err)
	}
	server.Log.Infof("bot %s joined arena %s at %.1f,%.1f", *name, *arena, spawn.X, spawn.Z)

	done := make(chan error, 1)
	go func() { done <- client.Run() }()
	go wander(client)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		client.Close()
	case err := <-done:
		if err != nil {
			server.Log.Warnf("bot %s disconnected: %v", *name, err)
		}
	}
}

// wander 每隔一会儿换一次意图：转向、挪动方向、概率性开火
func wander(c *sim.Client) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		turn := (rand.Float64()*2 - 1) * 0.8
		shoot := rand.Float64() < 0.3
		c.Do(func(w *sim.World) {
			w.Self().Yaw += turn
			w.Input = sim.Input{
				Forward: rand.Float64() < 0.7,
				Left:    rand.Float64() < 0.2,
				Right:   rand.Float64() < 0.2,
			}
			if shoot {
				w.Shoot(time.Now())
			}
		})
	}
}
