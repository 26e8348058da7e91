package sim

import "time"

// 世界与运动调参：客户端本地积分器与子弹模拟共用
const (
	TickHz = 60 // 本地模拟频率

	// 包围体尺寸（全长），玩家活动边界为半长减去 WallMargin
	WorldWidth  = 100.0
	WorldHeight = 60.0
	WorldDepth  = 100.0
	WallMargin  = 1.0

	MoveAccel  = 0.02 // 每个激活方向每 Tick 的加速度贡献
	Friction   = 0.93 // 每 Tick 无条件施加的阻力系数（<1，给出拖曳极限速度）
	MaxSpeed   = 0.4  // 速度模长上限
	BounceDamp = -0.5 // 撞墙时该轴速度的反转衰减系数

	EyeHeight      = 1.6 // 第一人称视点高度
	CameraHeight   = 2.5 // 第三人称相机抬升
	CameraDistance = 6.0 // 第三人称相机后撤距离

	ProjectileSpeed  = 1.2 // 每 Tick 位移
	MuzzleOffset     = 2.0 // 出膛点沿瞄准方向的前移量，避免出膛即自撞
	HitRadius        = 1.5 // 命中判定距离（玩家半径 + 子弹半径）
	ProjectileMargin = 0.5 // 子弹越界判定的边界余量
)

const (
	ProjectileLifespan = 5000 * time.Millisecond // 子弹寿命
	ShootCooldown      = 50 * time.Millisecond   // 本地连射冷却（远端生成不受限）
)
