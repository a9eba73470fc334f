package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aranel/songsmith/internal/config"
)

type generationView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Theme       string `json:"theme"`
	VoiceStyle  string `json:"voice_style"`
	MusicStyle  string `json:"music_style"`
	AudioFile   string `json:"audio_file"`
	VideoFile   string `json:"video_file"`
	Status      string `json:"status"`
	Error       string `json:"error"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at"`
}

type generationEnvelope struct {
	Success    bool           `json:"success"`
	Generation generationView `json:"generation"`
}

func statusColor(status string) string {
	switch status {
	case "completed":
		return colorGreen
	case "failed":
		return colorRed
	case "running":
		return colorCyan
	default:
		return colorYellow
	}
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <theme>",
	Short: "Generate a song from a theme",
	Long: `Generate a song from a theme.

Examples:
  songsmith generate "Epic Battle"
  songsmith generate "Sacred Temple" --title "Hymn of Dawn" --voice choir
  songsmith generate "Roman Victory" --music gladiator --async`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		theme := strings.Join(args, " ")
		title, _ := cmd.Flags().GetString("title")
		voiceStyle, _ := cmd.Flags().GetString("voice")
		musicStyle, _ := cmd.Flags().GetString("music")
		async, _ := cmd.Flags().GetBool("async")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if !async {
			printStep("Generating %q, this takes a while...", theme)
		}
		resp, err := client.post("/api/generate", map[string]any{
			"theme":       theme,
			"title":       title,
			"voice_style": voiceStyle,
			"music_style": musicStyle,
			"async":       async,
		})
		if err != nil {
			return err
		}

		var result generationEnvelope
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		g := result.Generation

		if async {
			printSuccess("Queued generation %s", g.ID)
			fmt.Printf("Track it with: songsmith show %s\n", g.ID)
			return nil
		}

		if g.Status != "completed" {
			printError("Generation %s %s: %s", g.ID, g.Status, g.Error)
			return fmt.Errorf("generation failed")
		}
		printSuccess("Generated %q (%s / %s)", g.Title, g.VoiceStyle, g.MusicStyle)
		fmt.Printf("Audio: %s/download/%s/audio\n", client.baseURL, g.ID)
		if g.VideoFile != "" {
			fmt.Printf("Video: %s/download/%s/video\n", client.baseURL, g.ID)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("title", "", "song title (derived from the theme when omitted)")
	generateCmd.Flags().String("voice", "", "voice style: heroic_male, soprano, choir, whisper")
	generateCmd.Flags().String("music", "", "music style: epic, pop, dark, gregorian, fantasy, gladiator, emotional")
	generateCmd.Flags().Bool("async", false, "queue the generation instead of waiting for it")
}

// --- gallery ---

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List recent generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/api/generations?per_page=%d", limit)
		if status != "" {
			path += "&status=" + status
		}
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var result struct {
			Generations []generationView `json:"generations"`
			Total       int              `json:"total"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Generations) == 0 {
			fmt.Println("No generations found.")
			return nil
		}

		for _, g := range result.Generations {
			title := g.Title
			if len(title) > 40 {
				title = title[:40] + "..."
			}
			fmt.Printf("%s  %s  %-10s %s\n",
				colorize(colorCyan, g.ID[:8]),
				g.CreatedAt,
				colorize(statusColor(g.Status), g.Status),
				title,
			)
		}
		fmt.Printf("\n%d of %d shown\n", len(result.Generations), result.Total)
		return nil
	},
}

func init() {
	galleryCmd.Flags().String("status", "", "filter by status: pending, running, completed, failed")
	galleryCmd.Flags().Int("limit", 20, "maximum number of generations to list")
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single generation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/api/generations/" + args[0])
		if err != nil {
			return err
		}

		var result struct {
			Generation any `json:"generation"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Generation)
	},
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show studio statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/api/stats")
		if err != nil {
			return err
		}

		var result struct {
			Stats struct {
				Total           int            `json:"total"`
				Completed       int            `json:"completed"`
				Failed          int            `json:"failed"`
				SuccessRate     float64        `json:"success_rate"`
				AvgDurationSec  float64        `json:"avg_duration_sec"`
				StyleCounts     map[string]int `json:"style_counts"`
				PopularKeywords []string       `json:"popular_keywords"`
			} `json:"stats"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		st := result.Stats

		printStatus("Generations", "%d (%d completed, %d failed)", st.Total, st.Completed, st.Failed)
		printStatus("Success rate", "%.0f%%", st.SuccessRate)
		if st.AvgDurationSec > 0 {
			printStatus("Avg duration", "%.1fs", st.AvgDurationSec)
		}
		if len(st.PopularKeywords) > 0 {
			printStatus("Popular themes", "%s", strings.Join(st.PopularKeywords, ", "))
		}
		for style, count := range st.StyleCounts {
			printStatus("  "+style, "%d", count)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
