package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundaryReflectionIsInelastic(t *testing.T) {
	he := WorldWidth/2 - WallMargin
	w := NewWorld("a", Vec3{X: he}, nil)
	w.vel = Vec3{X: 0.2}

	w.Step()

	// 越界轴收边到边界，速度反转并衰减一半（阻力先于碰边施加）
	self := w.Self()
	require.Equal(t, he, self.Pos.X)
	require.InDelta(t, BounceDamp*0.2*Friction, w.vel.X, 1e-12)
}

func TestBounceDecaysOverSeveralTicks(t *testing.T) {
	he := WorldWidth/2 - WallMargin
	w := NewWorld("a", Vec3{X: he}, nil)
	w.vel = Vec3{X: 0.3}

	// 贴墙滑行是逐 Tick 减速，不是硬停
	prev := math.Abs(w.vel.X)
	for i := 0; i < 5; i++ {
		w.Step()
		cur := math.Abs(w.vel.X)
		require.Less(t, cur, prev)
		prev = cur
	}
	require.Greater(t, prev, 0.0)
}

func TestFrictionDecaysVelocityWithoutInput(t *testing.T) {
	w := NewWorld("a", Vec3{}, nil)
	w.vel = Vec3{X: 0.1}

	w.Step()
	require.InDelta(t, 0.1*Friction, w.vel.X, 1e-12)
	require.InDelta(t, 0.1*Friction, w.Self().Pos.X, 1e-12)
}

func TestStrafeStaysHorizontalUnderPitch(t *testing.T) {
	w := NewWorld("a", Vec3{}, nil)
	w.Self().Pitch = 0.8 // 抬头看天
	w.Input = Input{Right: true}

	for i := 0; i < 10; i++ {
		w.Step()
	}
	// 平移与视角俯仰解耦：横移不产生垂直分量
	require.Zero(t, w.vel.Y)
	require.Zero(t, w.Self().Pos.Y)
}

func TestForwardFollowsPitch(t *testing.T) {
	w := NewWorld("a", Vec3{}, nil)
	w.Self().Pitch = 0.5
	w.Input = Input{Forward: true}

	w.Step()
	require.Greater(t, w.vel.Y, 0.0)
	require.Greater(t, w.vel.Z, 0.0)
}

func TestVelocityClampedToMaxSpeed(t *testing.T) {
	w := NewWorld("a", Vec3{}, nil)
	w.Input = Input{Forward: true}

	for i := 0; i < 500; i++ {
		w.Step()
	}
	require.LessOrEqual(t, w.vel.Len(), MaxSpeed+1e-9)
}

func TestCameraPoseThirdPerson(t *testing.T) {
	w := NewWorld("a", Vec3{X: 10, Z: 20}, nil)
	w.ThirdPerson = true

	pos, look := w.CameraPose()
	// 偏航为零：相机在本体正后方、抬升固定高度
	require.InDelta(t, 10.0, pos.X, 1e-12)
	require.InDelta(t, CameraHeight, pos.Y, 1e-12)
	require.InDelta(t, 20.0-CameraDistance, pos.Z, 1e-12)
	require.InDelta(t, 1.0, look.Z, 1e-12)

	// 转身后偏移随偏航旋转
	w.Self().Yaw = math.Pi / 2
	pos, _ = w.CameraPose()
	require.InDelta(t, 10.0-CameraDistance, pos.X, 1e-9)
	require.InDelta(t, 20.0, pos.Z, 1e-9)
}

func TestAimDirectionMatchesLookInBothPerspectives(t *testing.T) {
	w := NewWorld("a", Vec3{}, nil)
	w.Self().Yaw = 0.7
	w.Self().Pitch = 0.2

	first := w.AimDirection()
	w.ThirdPerson = true
	third := w.AimDirection()

	// 两种视角的偏航一致，瞄准方向同向
	require.InDelta(t, first.X, third.X, 1e-12)
	require.InDelta(t, first.Y, third.Y, 1e-12)
	require.InDelta(t, first.Z, third.Z, 1e-12)
	require.InDelta(t, 1.0, first.Len(), 1e-12)
}
