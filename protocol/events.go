package protocol

import (
	"fmt"
	"math"
)

// 事件名称：与客户端约定的消息类型
const (
	// 入站（客户端 → 中枢）
	EvtJoin  = "join"
	EvtMove  = "move"
	EvtSpawn = "spawn-projectile"
	EvtHit   = "hit"

	// 出站（中枢 → 客户端）
	EvtPlayerJoined = "player-joined"
	EvtPlayerMoved  = "player-moved"
	EvtPlayerLeft   = "player-left"
	EvtProjectile   = "projectile-spawned"
	EvtPlayerHit    = "player-hit"
)

// Vec3 三维坐标
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation 视角角度：X 为俯仰（pitch），Y 为偏航（yaw）
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerRecord 每个连接的权威状态元组（id、位置、旋转、颜色）
// rotation 可缺省：缺省表示客户端从未上报过视角
type PlayerRecord struct {
	ID       string    `json:"id"`
	Position Vec3      `json:"position"`
	Rotation *Rotation `json:"rotation,omitempty"`
	Color    string    `json:"color,omitempty"`
}

// RecordPayload join/move 的入站形状；指针字段用于区分“缺失”与“零值”
// 客户端自报的 id 与 color 仅做形状校验，中枢一律以连接身份与配色器覆盖
type RecordPayload struct {
	ID       string    `json:"id"`
	Position *Vec3     `json:"position"`
	Rotation *Rotation `json:"rotation"`
	Color    string    `json:"color,omitempty"`
}

// Validate 按固定 Schema 校验：id 必填，position 必须为有限数值三元组，
// rotation 可缺省但出现时必须为有限数值对
func (p *RecordPayload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("record: missing id")
	}
	if p.Position == nil {
		return fmt.Errorf("record: missing position")
	}
	if !finite(p.Position.X, p.Position.Y, p.Position.Z) {
		return fmt.Errorf("record: position not finite")
	}
	if p.Rotation != nil && !finite(p.Rotation.X, p.Rotation.Y) {
		return fmt.Errorf("record: rotation not finite")
	}
	return nil
}

// SpawnPayload 子弹生成事件载荷；Shooter 由中枢以连接身份盖章，
// 入站载荷中出现的 shooter 会被覆盖
type SpawnPayload struct {
	Position  *Vec3  `json:"position"`
	Direction *Vec3  `json:"direction"`
	Color     string `json:"color"`
	Shooter   string `json:"shooter,omitempty"`
}

func (p *SpawnPayload) Validate() error {
	if p.Position == nil || !finite(p.Position.X, p.Position.Y, p.Position.Z) {
		return fmt.Errorf("spawn: bad position")
	}
	if p.Direction == nil || !finite(p.Direction.X, p.Direction.Y, p.Direction.Z) {
		return fmt.Errorf("spawn: bad direction")
	}
	if p.Color == "" {
		return fmt.Errorf("spawn: missing color")
	}
	return nil
}

// HitPayload 命中结算：客户端算好混色后上报，中枢原样转播给所有连接
type HitPayload struct {
	PlayerID string `json:"playerId"`
	NewColor string `json:"newColor"`
}

func (p *HitPayload) Validate() error {
	if p.PlayerID == "" {
		return fmt.Errorf("hit: missing playerId")
	}
	if p.NewColor == "" {
		return fmt.Errorf("hit: missing newColor")
	}
	return nil
}

// LeftPayload 玩家离开广播，仅携带 id
type LeftPayload struct {
	ID string `json:"id"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
