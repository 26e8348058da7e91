package server

import (
	"math/rand"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// palette 固定顺序的基础配色（P=30）：分配时按此顺序线性扫描取第一个空位
var palette = [...]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#fffac8", "#800000",
	"#aaffc3", "#808000", "#ffd8b1", "#000075", "#808080",
	"#4682b4", "#dc143c", "#2e8b57", "#daa520", "#6a5acd",
	"#ff7f50", "#20b2aa", "#d2691e", "#7b68ee", "#b22222",
}

// overflowCap 合成色追踪集合的容量上限：超出后只发色、不追踪，防止内存无界增长
const overflowCap = 100

// ColorAllocator 为在线玩家分配唯一颜色：
// 调色盘占用过半后改为随机合成粉彩色，断开时归还
// 仅允许在中枢事件循环内调用，无内部加锁
type ColorAllocator struct {
	inUse    map[string]struct{} // 调色盘中已占用的条目
	overflow map[string]struct{} // 被追踪的合成色
	rng      *rand.Rand
}

func NewColorAllocator() *ColorAllocator {
	return &ColorAllocator{
		inUse:    make(map[string]struct{}),
		overflow: make(map[string]struct{}),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Allocate 返回一个当前无在线玩家持有的颜色字符串
func (a *ColorAllocator) Allocate() string {
	// 占用过半即转合成，避免调色盘快速耗尽
	if len(a.inUse) >= len(palette)/2 {
		c := a.synthesize()
		if len(a.overflow) < overflowCap {
			a.overflow[c] = struct{}{}
		}
		return c
	}
	for _, c := range palette {
		if _, used := a.inUse[c]; !used {
			a.inUse[c] = struct{}{}
			return c
		}
	}
	// 兜底：理论上不可达（上面的半数检查保证有空位）
	// 返回随机调色盘条目且不追踪，保证分配永远能前进
	return palette[a.rng.Intn(len(palette))]
}

// Release 归还颜色，使调色盘条目可被复用
// 未被追踪的颜色（如超额合成色）静默忽略
func (a *ColorAllocator) Release(color string) {
	delete(a.inUse, color)
	delete(a.overflow, color)
}

// PaletteInUse 当前被占用的调色盘条目数
func (a *ColorAllocator) PaletteInUse() int { return len(a.inUse) }

// OverflowTracked 当前被追踪的合成色数量
func (a *ColorAllocator) OverflowTracked() int { return len(a.overflow) }

// synthesize 在粉彩色带内合成新颜色：低饱和、高亮度，碰撞概率极低
// 若撞上已追踪的合成色则重掷
func (a *ColorAllocator) synthesize() string {
	for {
		h := a.rng.Float64() * 360
		s := 0.15 + a.rng.Float64()*0.25
		l := 0.80 + a.rng.Float64()*0.15
		c := colorful.Hsl(h, s, l).Hex()
		if _, dup := a.overflow[c]; !dup {
			return c
		}
	}
}
