// Package video renders a frame sequence synchronized to the lyric
// sheet and muxes it with the final audio into an MP4.
package video

import (
	"fmt"
	"strconv"
)

// Color is an RGB triple in [0, 1], the range the drawing context uses.
type Color struct {
	R, G, B float64
}

// Scene is a named backdrop with a three-color palette.
type Scene struct {
	Name   string
	Colors [3]Color
}

func hex(s string) Color {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		panic(fmt.Sprintf("bad palette literal %q", s))
	}
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

var scenes = map[string]Scene{
	"epic_battle":       {"epic_battle", [3]Color{hex("8B0000"), hex("FFD700"), hex("2F4F4F")}},
	"sacred_temple":     {"sacred_temple", [3]Color{hex("DAA520"), hex("F5DEB3"), hex("8B4513")}},
	"emotional_closeup": {"emotional_closeup", [3]Color{hex("4682B4"), hex("FFE4B5"), hex("DDA0DD")}},
	"cinematic_journey": {"cinematic_journey", [3]Color{hex("4682B4"), hex("FFD700"), hex("228B22")}},
	"grand_vista":       {"grand_vista", [3]Color{hex("87CEEB"), hex("FFD700"), hex("2F4F4F")}},
	"heroic_scene":      {"heroic_scene", [3]Color{hex("FFD700"), hex("8B0000"), hex("4682B4")}},
	"dark_ritual":       {"dark_ritual", [3]Color{hex("000000"), hex("8B0000"), hex("4B0082")}},
	"fantasy_realm":     {"fantasy_realm", [3]Color{hex("9370DB"), hex("20B2AA"), hex("98FB98")}},
}

// styleScenes maps a music style to the scene rotation used for its
// video. Sections cycle through the list in order.
var styleScenes = map[string][]string{
	"epic":      {"epic_battle", "grand_vista", "heroic_scene"},
	"emotional": {"emotional_closeup", "cinematic_journey"},
	"dark":      {"dark_ritual", "epic_battle"},
	"fantasy":   {"fantasy_realm", "sacred_temple"},
	"gladiator": {"epic_battle", "heroic_scene"},
	"gregorian": {"sacred_temple"},
	"pop":       {"emotional_closeup", "cinematic_journey"},
}

// SceneFor returns the backdrop for the i-th section of a song in the
// given music style.
func SceneFor(style string, i int) Scene {
	names, ok := styleScenes[style]
	if !ok {
		names = styleScenes["epic"]
	}
	return scenes[names[i%len(names)]]
}
