package mesh

// Tier 决定 target_polycount 的合法区间。
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// DefaultTargetPolycount 是未显式配置时的目标面数。
const DefaultTargetPolycount = 30000

// ClampPolycount 先吸附到最近的 100，再收敛到档位允许的区间：
// 免费档 10000–30000，高级档 100–300000。
func (t Tier) ClampPolycount(v int) int {
	v = ((v + 50) / 100) * 100

	min, max := 10000, 30000
	if t == TierPremium {
		min, max = 100, 300000
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
