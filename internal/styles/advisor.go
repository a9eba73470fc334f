// Package styles picks voice and music styles for a theme when the
// caller does not choose them explicitly.
package styles

import "strings"

// Voice styles supported by the synthesis chain.
const (
	VoiceHeroicMale = "heroic_male"
	VoiceSoprano    = "soprano"
	VoiceChoir      = "choir"
	VoiceWhisper    = "whisper"
)

// Music styles supported by the backing-track generator.
const (
	MusicEpic      = "epic"
	MusicPop       = "pop"
	MusicDark      = "dark"
	MusicGregorian = "gregorian"
	MusicFantasy   = "fantasy"
	MusicGladiator = "gladiator"
	MusicEmotional = "emotional"
)

// VoiceStyles lists every accepted voice style.
var VoiceStyles = []string{VoiceHeroicMale, VoiceSoprano, VoiceChoir, VoiceWhisper}

// MusicStyles lists every accepted music style.
var MusicStyles = []string{MusicEpic, MusicPop, MusicDark, MusicGregorian, MusicFantasy, MusicGladiator, MusicEmotional}

// ValidVoice reports whether s names a known voice style.
func ValidVoice(s string) bool {
	for _, v := range VoiceStyles {
		if s == v {
			return true
		}
	}
	return false
}

// ValidMusic reports whether s names a known music style.
func ValidMusic(s string) bool {
	for _, m := range MusicStyles {
		if s == m {
			return true
		}
	}
	return false
}

// rule maps theme keywords to a style. Rules are checked in order and
// the first match wins.
type rule struct {
	keywords []string
	style    string
}

var voiceRules = []rule{
	{[]string{"battle", "war", "champion"}, VoiceHeroicMale},
	{[]string{"sacred", "divine", "eternal"}, VoiceChoir},
	{[]string{"emotional", "love", "heart"}, VoiceSoprano},
	{[]string{"mystery", "secret"}, VoiceWhisper},
}

var musicRules = []rule{
	{[]string{"gladiator", "arena"}, MusicGladiator},
	{[]string{"sacred", "prayer"}, MusicGregorian},
	{[]string{"dark", "shadow"}, MusicDark},
	{[]string{"magic", "fantasy"}, MusicFantasy},
	{[]string{"emotional"}, MusicEmotional},
	{[]string{"modern", "pop"}, MusicPop},
}

func match(theme string, rules []rule, fallback string) string {
	lower := strings.ToLower(theme)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.style
			}
		}
	}
	return fallback
}

// Suggest resolves the effective voice and music styles for a theme.
// Explicit valid choices pass through untouched; empty or unknown
// values fall back to keyword matching on the theme. Suggest is total:
// it always returns valid styles, whatever the inputs.
func Suggest(theme, voice, music string) (string, string) {
	if !ValidVoice(voice) {
		voice = match(theme, voiceRules, VoiceHeroicMale)
	}
	if !ValidMusic(music) {
		music = match(theme, musicRules, MusicEpic)
	}
	return voice, music
}
