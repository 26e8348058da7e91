package sim

import colorful "github.com/lucasb-eyer/go-colorful"

// MixHex 按通道平均混合两个十六进制颜色（四舍五入）
// 任一方解析失败时返回另一方，保证总有可用颜色
func MixHex(a, b string) string {
	ca, errA := colorful.Hex(a)
	cb, errB := colorful.Hex(b)
	if errA != nil {
		return b
	}
	if errB != nil {
		return a
	}
	return colorful.Color{
		R: (ca.R + cb.R) / 2,
		G: (ca.G + cb.G) / 2,
		B: (ca.B + cb.B) / 2,
	}.Hex()
}
