package sim

import (
	"time"

	"cubearena/protocol"
)

// Entity 本地世界中的一个可见实体：受控本体或远端镜像
// 远端镜像只随中枢广播更新，从不在本地重跑积分器
type Entity struct {
	ID    string
	Pos   Vec3
	Pitch float64
	Yaw   float64
	Color string
}

// Input 当前帧激活的方向意图
type Input struct {
	Forward, Back, Left, Right bool
}

// EmitFunc 把本地产生的事件上报给中枢（由客户端接线）
type EmitFunc func(evtType string, payload any)

// World 客户端本地世界：受控本体 + 远端镜像 + 在飞子弹
// 实体集合保持插入有序：命中判定按插入顺序“先到先得”，结果可复现
// 所有方法须在同一模拟循环内调用，无内部加锁
type World struct {
	selfID      string
	entities    map[string]*Entity
	order       []string
	projectiles []*Projectile

	Input       Input
	ThirdPerson bool

	vel      Vec3
	lastShot time.Time
	emit     EmitFunc
}

func NewWorld(selfID string, spawn Vec3, emit EmitFunc) *World {
	w := &World{
		selfID:   selfID,
		entities: make(map[string]*Entity),
		emit:     emit,
	}
	w.addEntity(&Entity{ID: selfID, Pos: spawn})
	return w
}

// Self 受控本体
func (w *World) Self() *Entity { return w.entities[w.selfID] }

// Entity 按 id 取实体
func (w *World) Entity(id string) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Entities 当前实体数（含本体）
func (w *World) Entities() int { return len(w.entities) }

// Projectiles 当前在飞子弹数
func (w *World) Projectiles() int { return len(w.projectiles) }

func (w *World) addEntity(e *Entity) {
	if _, ok := w.entities[e.ID]; !ok {
		w.order = append(w.order, e.ID)
	}
	w.entities[e.ID] = e
}

func (w *World) removeEntity(id string) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// ApplyEnvelope 套用一条中枢广播；未知或畸形载荷静默忽略
func (w *World) ApplyEnvelope(env protocol.Envelope, now time.Time) {
	switch env.Type {
	case protocol.EvtPlayerJoined:
		if rec, err := protocol.DecodePayload[protocol.PlayerRecord](env); err == nil {
			w.ApplyJoined(rec)
		}
	case protocol.EvtPlayerMoved:
		if rec, err := protocol.DecodePayload[protocol.PlayerRecord](env); err == nil {
			w.ApplyMoved(rec)
		}
	case protocol.EvtPlayerLeft:
		if p, err := protocol.DecodePayload[protocol.LeftPayload](env); err == nil {
			w.ApplyLeft(p.ID)
		}
	case protocol.EvtProjectile:
		if sp, err := protocol.DecodePayload[protocol.SpawnPayload](env); err == nil {
			w.ApplyProjectile(sp, now)
		}
	case protocol.EvtPlayerHit:
		if p, err := protocol.DecodePayload[protocol.HitPayload](env); err == nil {
			w.ApplyHit(p.PlayerID, p.NewColor)
		}
	}
}

// ApplyJoined 加入广播：远端实体创建或幂等重述；
// 本体已存在时只认领中枢签发的颜色（位置由本地积分器做主）
func (w *World) ApplyJoined(rec protocol.PlayerRecord) {
	if e, ok := w.entities[rec.ID]; ok {
		if rec.ID == w.selfID {
			if e.Color == "" {
				e.Color = rec.Color
			}
			return
		}
		w.applyRecord(e, rec)
		e.Color = rec.Color
		return
	}
	e := &Entity{ID: rec.ID, Color: rec.Color}
	w.applyRecord(e, rec)
	w.addEntity(e)
}

// ApplyMoved 移动广播：镜像位置/旋转上写；颜色不动（避免覆盖命中混色）
// 本体的回声广播直接忽略，位置以本地积分为准
func (w *World) ApplyMoved(rec protocol.PlayerRecord) {
	if rec.ID == w.selfID {
		return
	}
	e, ok := w.entities[rec.ID]
	if !ok {
		e = &Entity{ID: rec.ID, Color: rec.Color}
		w.addEntity(e)
	}
	w.applyRecord(e, rec)
}

// ApplyLeft 离开广播：移除镜像
func (w *World) ApplyLeft(id string) {
	if id == w.selfID {
		return
	}
	w.removeEntity(id)
}

// ApplyHit 命中结算广播：无条件套色（包括打在自己身上），幂等
func (w *World) ApplyHit(playerID, newColor string) {
	if e, ok := w.entities[playerID]; ok {
		e.Color = newColor
	}
}

// ApplyProjectile 远端子弹生成：发射者本地已有副本，不重复生成
func (w *World) ApplyProjectile(sp protocol.SpawnPayload, now time.Time) {
	if sp.Shooter == w.selfID || sp.Position == nil || sp.Direction == nil {
		return
	}
	w.spawnRemote(sp, now)
}

func (w *World) applyRecord(e *Entity, rec protocol.PlayerRecord) {
	e.Pos = fromWire(rec.Position)
	if rec.Rotation != nil {
		e.Pitch = rec.Rotation.X
		e.Yaw = rec.Rotation.Y
	}
}

func fromWire(v protocol.Vec3) Vec3 { return Vec3{v.X, v.Y, v.Z} }

func toWire(v Vec3) protocol.Vec3 { return protocol.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

func wirePtr(v Vec3) *protocol.Vec3 {
	p := toWire(v)
	return &p
}
