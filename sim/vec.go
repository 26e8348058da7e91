package sim

import "math"

// Vec3 三维向量（世界坐标：Y 朝上）
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize 归一化；零向量原样返回
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// forwardFrom 由偏航/俯仰推出前向单位向量
// 俯仰只影响前向的垂直分量
func forwardFrom(yaw, pitch float64) Vec3 {
	return Vec3{
		X: math.Sin(yaw) * math.Cos(pitch),
		Y: math.Sin(pitch),
		Z: math.Cos(yaw) * math.Cos(pitch),
	}
}

// rightFrom 右向只绕竖直轴由偏航推出，始终保持水平
// （平移与视角俯仰解耦）
func rightFrom(yaw float64) Vec3 {
	return Vec3{X: math.Cos(yaw), Y: 0, Z: -math.Sin(yaw)}
}
