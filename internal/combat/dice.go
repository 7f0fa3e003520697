package combat

import (
	"math/rand/v2"

	"github.com/thornvale/mud/internal/game"
)

const (
	// DefaultHitChance applies to unarmed attacks and weapons without an
	// explicit accuracy rating.
	DefaultHitChance = game.UnarmedHitChance

	fleeChance     = 0.5
	damageVariance = 2
)

// rollInitiative is a d20 roll with a small stamina bonus; higher acts first.
func rollInitiative(stamina int) int {
	return rand.IntN(20) + 1 + stamina/10
}

// rollHit reports whether an attack with the given accuracy lands.
func rollHit(hitChance float64) bool {
	return rand.Float64() <= hitChance
}

// rollDamage computes attack damage with a +/-2 swing, never below 1.
func rollDamage(base, bonus int) int {
	dmg := base + bonus + rand.IntN(2*damageVariance+1) - damageVariance
	return max(dmg, 1)
}

// applyDefense halves incoming damage for a defending target, never below 1.
func applyDefense(dmg int, defending bool) int {
	if !defending {
		return dmg
	}
	return max(dmg/2, 1)
}

// rollFlee reports whether a flee attempt succeeds.
func rollFlee() bool {
	return rand.Float64() < fleeChance
}

// randIndex picks a uniform index below n.
func randIndex(n int) int {
	return rand.IntN(n)
}
