package domain

import (
	"maps"
	"slices"
)

var attacks = map[string]int{
	"fireball":      20,
	"punch":         8,
	"ice_shard":     15,
	"lightning":     18,
	"earthquake":    25,
	"wind_slash":    12,
	"water_blast":   14,
	"shadow_strike": 22,
	"holy_light":    19,
	"poison_dart":   10,
	"rock_throw":    13,
	"flame_wave":    17,
	"thunder_clap":  16,
	"blizzard":      21,
	"venom_spit":    11,
	"meteor":        30,
	"energy_burst":  24,
	"dark_pulse":    23,
	"solar_flare":   26,
	"gravity_crush": 28,
}

// Damage looks an attack up in the catalog. Unknown names deal no damage.
func Damage(attack string) (int, bool) {
	d, ok := attacks[attack]
	return d, ok
}

// AttackNames returns the catalog keys in alphabetical order.
func AttackNames() []string {
	return slices.Sorted(maps.Keys(attacks))
}
