package server

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"
)

func paletteSet() map[string]struct{} {
	s := make(map[string]struct{}, len(palette))
	for _, c := range palette {
		s[c] = struct{}{}
	}
	return s
}

func TestAllocateUniquePaletteColors(t *testing.T) {
	a := NewColorAllocator()
	inPalette := paletteSet()
	seen := make(map[string]struct{})
	// 半数阈值以内全部来自调色盘，且两两不同
	for i := 0; i < len(palette)/2; i++ {
		c := a.Allocate()
		_, dup := seen[c]
		require.False(t, dup, "color %q allocated twice", c)
		_, ok := inPalette[c]
		require.True(t, ok, "color %q not from palette", c)
		seen[c] = struct{}{}
	}
}

func TestAllocateSynthesizesPastHalfPalette(t *testing.T) {
	a := NewColorAllocator()
	for i := 0; i < len(palette)/2; i++ {
		a.Allocate()
	}
	inPalette := paletteSet()
	// 过半后改发合成色：不来自调色盘，且落在约定的粉彩色带内
	for i := 0; i < 20; i++ {
		c := a.Allocate()
		_, ok := inPalette[c]
		require.False(t, ok, "expected synthesized color, got palette entry %q", c)

		col, err := colorful.Hex(c)
		require.NoError(t, err)
		_, s, l := col.Hsl()
		// 高亮度下 RGB 量化会明显放大反算出的饱和度误差，判定带放得很宽
		require.GreaterOrEqual(t, s, 0.08, "saturation out of pastel band: %v", s)
		require.Less(t, s, 0.50, "saturation out of pastel band: %v", s)
		require.GreaterOrEqual(t, l, 0.77, "lightness out of pastel band: %v", l)
		require.Less(t, l, 0.97, "lightness out of pastel band: %v", l)
	}
}

func TestReleaseMakesPaletteEntryReusable(t *testing.T) {
	a := NewColorAllocator()
	var got []string
	for i := 0; i < len(palette)/2; i++ {
		got = append(got, a.Allocate())
	}
	// 归还一个调色盘条目后，下一次分配按固定顺序扫描应复用它
	a.Release(got[3])
	require.Equal(t, got[3], a.Allocate())
}

func TestReleaseUnknownColorIsNoop(t *testing.T) {
	a := NewColorAllocator()
	first := a.Allocate()
	a.Release("#not-a-tracked-color")
	require.Equal(t, 1, a.PaletteInUse())
	a.Release(first)
	require.Equal(t, 0, a.PaletteInUse())
}

func TestOverflowTrackingIsBounded(t *testing.T) {
	a := NewColorAllocator()
	for i := 0; i < len(palette)/2; i++ {
		a.Allocate()
	}
	for i := 0; i < overflowCap; i++ {
		a.Allocate()
	}
	require.Equal(t, overflowCap, a.OverflowTracked())

	// 追踪集合封顶后继续发色但不再追踪
	extra := a.Allocate()
	require.NotEmpty(t, extra)
	require.Equal(t, overflowCap, a.OverflowTracked())

	// 未被追踪的合成色归还是静默空操作
	a.Release(extra)
	require.Equal(t, overflowCap, a.OverflowTracked())
	require.Equal(t, len(palette)/2, a.PaletteInUse())
}
