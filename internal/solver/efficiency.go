// Package solver holds what both planners share: the efficiency context
// derived from research levels, per-activation rate math, and the display
// merge over solved production graphs.
package solver

import (
	"github.com/hexveil/chainplan/internal/models"
)

// Epsilon bounds every "effectively zero" comparison in the planners.
const Epsilon = 1e-6

// Skill progressions are piecewise linear: a steep early tier and a
// flatter tier past the breakpoint, mirroring the game's diminishing
// returns. The numeric tests pin the exact breakpoints.
const (
	speedCapLevel   = 92
	speedBreakLevel = 12
	speedEarlyRate  = 0.25
	speedLateRate   = 0.05

	beltBaseLimit  = 60.0
	beltCapLevel   = 92
	beltBreakLevel = 12
	beltEarlyRate  = 15.0
	beltLateRate   = 3.0

	flatSkillRate = 0.10
	// Uncapped skills are still clamped to a sane bound so a corrupt
	// config cannot blow up the model.
	maxSkillLevel = 200
)

// EfficiencyContext carries every rate modifier of one planning run.
// Built once per invocation and never mutated mid-solve.
type EfficiencyContext struct {
	SpeedMultiplier      float64
	AlchemyMultiplier    float64
	FuelMultiplier       float64
	FertilizerMultiplier float64
	BeltLimit            float64
	SelectedFuel         string
	SelectedFertilizer   string
}

// BuildEfficiencyContext converts raw research levels into multipliers.
func BuildEfficiencyContext(config *models.PlannerConfig) EfficiencyContext {
	fuel := config.SelectedFuel
	if fuel == "" {
		fuel = "Coal"
	}
	return EfficiencyContext{
		SpeedMultiplier:      1 + tieredBonus(config.FactoryEfficiency, speedCapLevel, speedBreakLevel, speedEarlyRate, speedLateRate),
		AlchemyMultiplier:    1 + alchemyBonus(config.AlchemySkill),
		FuelMultiplier:       1 + flatBonus(config.FuelEfficiency),
		FertilizerMultiplier: 1 + flatBonus(config.FertilizerEfficiency),
		BeltLimit:            beltBaseLimit + tieredBonus(config.LogisticsEfficiency, beltCapLevel, beltBreakLevel, beltEarlyRate, beltLateRate),
		SelectedFuel:         fuel,
		SelectedFertilizer:   config.SelectedFertilizer,
	}
}

// tieredBonus accumulates earlyRate per level up to the breakpoint and
// lateRate per level beyond it, with the level clamped to [0, cap].
func tieredBonus(level, cap, breakpoint int, earlyRate, lateRate float64) float64 {
	level = clampLevel(level, cap)
	if level <= breakpoint {
		return float64(level) * earlyRate
	}
	return float64(breakpoint)*earlyRate + float64(level-breakpoint)*lateRate
}

// alchemyBonus uses three tiers: +6%/level for 1-2, +8%/level for 3-8,
// +10%/level from 9 up.
func alchemyBonus(level int) float64 {
	level = clampLevel(level, maxSkillLevel)
	bonus := 0.0
	for l := 1; l <= level; l++ {
		switch {
		case l <= 2:
			bonus += 0.06
		case l <= 8:
			bonus += 0.08
		default:
			bonus += 0.10
		}
	}
	return bonus
}

func flatBonus(level int) float64 {
	return float64(clampLevel(level, maxSkillLevel)) * flatSkillRate
}

func clampLevel(level, cap int) int {
	if level < 0 {
		return 0
	}
	if level > cap {
		return cap
	}
	return level
}
