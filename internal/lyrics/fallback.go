package lyrics

import "strings"

// sectionSeconds is the length of each templated section. Sections
// alternate verse and chorus on a fixed grid.
const sectionSeconds = 30

var templateLines = map[string][]string{
	"epic": {
		"Rise above the shadow's call",
		"Through the fire we stand tall",
		"Victory echoes through the land",
		"United we make our final stand",
	},
	"battle": {
		"Warriors gather in the dawn",
		"Steel and courage pressing on",
		"Glory waits beyond the fight",
		"We are champions of the light",
	},
	"sacred": {
		"Divine light guides our way",
		"Sacred vows we keep today",
		"Eternal grace within our souls",
		"Heaven's plan for us unfolds",
	},
}

// Fallback builds a lyric sheet from templates, used when no API key
// is configured or the lyrics API call fails.
func Fallback(theme, title string) Sheet {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(theme)
	}

	lower := strings.ToLower(theme)
	lines := templateLines["epic"]
	switch {
	case strings.Contains(lower, "battle") || strings.Contains(lower, "war"):
		lines = templateLines["battle"]
	case strings.Contains(lower, "sacred") || strings.Contains(lower, "divine"):
		lines = templateLines["sacred"]
	}

	sections := make([]Section, len(lines))
	for i, line := range lines {
		kind := "verse"
		if i%2 == 1 {
			kind = "chorus"
		}
		sections[i] = Section{
			Type:   kind,
			Lyrics: line,
			Start:  i * sectionSeconds,
			End:    (i + 1) * sectionSeconds,
		}
	}

	return Sheet{
		Title:    title,
		Theme:    theme,
		FullText: strings.Join(lines, "\n"),
		Sections: sections,
	}
}
