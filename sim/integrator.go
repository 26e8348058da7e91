package sim

import "math"

// Step 推进受控本体一个 Tick：
// 加速度每帧归零重算，前向由偏航+俯仰推出，右向只随偏航保持水平；
// 速度先累加、再施阻力、后限模长；最后逐轴收边并做非弹性反弹
func (w *World) Step() {
	self := w.Self()

	acc := Vec3{}
	fwd := forwardFrom(self.Yaw, self.Pitch)
	right := rightFrom(self.Yaw)
	if w.Input.Forward {
		acc = acc.Add(fwd.Scale(MoveAccel))
	}
	if w.Input.Back {
		acc = acc.Add(fwd.Scale(-MoveAccel))
	}
	if w.Input.Right {
		acc = acc.Add(right.Scale(MoveAccel))
	}
	if w.Input.Left {
		acc = acc.Add(right.Scale(-MoveAccel))
	}

	// 阻力无条件施加：无输入时速度指数衰减，有输入时给出拖曳极限速度
	w.vel = w.vel.Add(acc).Scale(Friction)
	if l := w.vel.Len(); l > MaxSpeed {
		w.vel = w.vel.Scale(MaxSpeed / l)
	}
	self.Pos = self.Pos.Add(w.vel)

	bounceAxis(&self.Pos.X, &w.vel.X, WorldWidth/2-WallMargin)
	bounceAxis(&self.Pos.Y, &w.vel.Y, WorldHeight/2-WallMargin)
	bounceAxis(&self.Pos.Z, &w.vel.Z, WorldDepth/2-WallMargin)
}

// bounceAxis 单轴越界处理：收边并反转衰减该轴速度
// 不是硬停——贴墙滑行会在几个 Tick 内逐渐减速
func bounceAxis(pos, vel *float64, halfExtent float64) {
	if *pos > halfExtent {
		*pos = halfExtent
		*vel *= BounceDamp
	}
	if *pos < -halfExtent {
		*pos = -halfExtent
		*vel *= BounceDamp
	}
}

// Velocity 当前速度（只读快照）
func (w *World) Velocity() Vec3 { return w.vel }

// CameraPose 当前视角下的相机位置与朝向
// 第三人称：相机在本体后上方，偏移随偏航旋转
func (w *World) CameraPose() (pos Vec3, look Vec3) {
	self := w.Self()
	look = forwardFrom(self.Yaw, self.Pitch)
	if w.ThirdPerson {
		offset := Vec3{
			X: -math.Sin(self.Yaw) * CameraDistance,
			Y: CameraHeight,
			Z: -math.Cos(self.Yaw) * CameraDistance,
		}
		return self.Pos.Add(offset), look
	}
	return self.Pos.Add(Vec3{Y: EyeHeight}), look
}

// AimDirection 瞄准方向：第一人称取相机朝向；
// 第三人称取本体朝向叠加相机俯仰（两者的偏航一致，结果同向）
func (w *World) AimDirection() Vec3 {
	self := w.Self()
	if w.ThirdPerson {
		return forwardFrom(self.Yaw, self.Pitch)
	}
	_, look := w.CameraPose()
	return look
}
