package sim

import (
	"math"
	"time"

	"cubearena/protocol"
)

// Projectile 在飞子弹：出膛后只按固定速度直线推进，
// 射手断线也不影响已在飞行的子弹
type Projectile struct {
	Pos     Vec3
	Vel     Vec3
	Shooter string
	Color   string // 射手出膛时刻的颜色
	Born    time.Time
}

// Shoot 本地开火：受连射冷却限制；出膛点沿瞄准方向前移，避免出膛即自撞
// 成功时生成本地子弹并上报 spawn-projectile
func (w *World) Shoot(now time.Time) bool {
	if now.Sub(w.lastShot) < ShootCooldown {
		return false
	}
	w.lastShot = now
	self := w.Self()
	dir := w.AimDirection().Normalize()
	pos := self.Pos.Add(dir.Scale(MuzzleOffset))
	w.projectiles = append(w.projectiles, &Projectile{
		Pos:     pos,
		Vel:     dir.Scale(ProjectileSpeed),
		Shooter: w.selfID,
		Color:   self.Color,
		Born:    now,
	})
	if w.emit != nil {
		w.emit(protocol.EvtSpawn, protocol.SpawnPayload{
			Position:  wirePtr(pos),
			Direction: wirePtr(dir),
			Color:     self.Color,
		})
	}
	return true
}

// spawnRemote 远端生成广播：不设冷却，始终接受
func (w *World) spawnRemote(sp protocol.SpawnPayload, now time.Time) {
	dir := fromWire(*sp.Direction).Normalize()
	w.projectiles = append(w.projectiles, &Projectile{
		Pos:     fromWire(*sp.Position),
		Vel:     dir.Scale(ProjectileSpeed),
		Shooter: sp.Shooter,
		Color:   sp.Color,
		Born:    now,
	})
}

// UpdateProjectiles 逐发推进所有在飞子弹：
// 寿命到期 → 移除；推进一步；命中 → 混色并移除；越界 → 移除（不反弹）
func (w *World) UpdateProjectiles(now time.Time) {
	kept := w.projectiles[:0]
	for _, p := range w.projectiles {
		if now.Sub(p.Born) > ProjectileLifespan {
			continue
		}
		p.Pos = p.Pos.Add(p.Vel)
		if w.resolveHit(p) {
			continue
		}
		if projectileOut(p.Pos) {
			continue
		}
		kept = append(kept, p)
	}
	w.projectiles = kept
}

// resolveHit 命中判定：按实体插入顺序取第一个命中者，射手自身豁免
// 每发每 Tick 至多结算一次命中
func (w *World) resolveHit(p *Projectile) bool {
	for _, id := range w.order {
		if id == p.Shooter {
			continue
		}
		e := w.entities[id]
		if p.Pos.Dist(e.Pos) < HitRadius {
			mixed := MixHex(e.Color, p.Color)
			// 先本地立即套色再上报：中枢广播回来时幂等重放
			e.Color = mixed
			if w.emit != nil {
				w.emit(protocol.EvtHit, protocol.HitPayload{PlayerID: e.ID, NewColor: mixed})
			}
			return true
		}
	}
	return false
}

func projectileOut(p Vec3) bool {
	return math.Abs(p.X) > WorldWidth/2-ProjectileMargin ||
		math.Abs(p.Y) > WorldHeight/2-ProjectileMargin ||
		math.Abs(p.Z) > WorldDepth/2-ProjectileMargin
}
