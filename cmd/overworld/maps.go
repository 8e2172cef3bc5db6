package main

import (
	"github.com/annel0/overworld/internal/gen"
	"github.com/annel0/overworld/internal/vec"
)

// defaultSpecies используется, если sim.species_file не задан
const defaultSpecies = `
species:
  - name: link
    width: 16
    height: 16
    speed: 80
    health: 6
    death_duration: 1.0
    traits: [mobile, collidable, mortal]
  - name: octorok
    width: 16
    height: 16
    speed: 40
    health: 2
    death_duration: 0.5
    traits: [mobile, collidable, mortal, ai]
  - name: plant
    width: 16
    height: 16
    traits: [collidable, mortal]
`

// demoMaps две связанные процедурные карты
func demoMaps() []gen.MapSpec {
	return []gen.MapSpec{
		{
			Name: "overworld", Cols: 64, Rows: 48, Seed: 1337, Threshold: 0.62,
			Monsters: 12, Species: "octorok",
			Places: []gen.Place{
				{Name: "start", Cell: vec.Vec2{X: 4, Y: 4}, Orientation: vec.DirDown},
				{Name: "cave_exit", Cell: vec.Vec2{X: 60, Y: 24}, Orientation: vec.DirLeft},
			},
			Exits: []gen.Exit{
				{Name: "cave_door", Cell: vec.Vec2{X: 63, Y: 24}, Map: "cave", Place: "entrance"},
			},
		},
		{
			Name: "cave", Cols: 24, Rows: 24, Seed: 7, Threshold: 0.68,
			Monsters: 4, Species: "octorok",
			Places: []gen.Place{
				{Name: "entrance", Cell: vec.Vec2{X: 1, Y: 12}, Orientation: vec.DirRight},
			},
			Exits: []gen.Exit{
				{Name: "overworld_door", Cell: vec.Vec2{X: 0, Y: 12}, Map: "overworld", Place: "cave_exit"},
			},
		},
	}
}
