package policy

import "github.com/eliteGoblin/frickd/internal/domain"

// Built-in category identifiers.
const (
	CategoryGames  domain.CategoryID = "games"
	CategorySocial domain.CategoryID = "social"
	CategoryVideo  domain.CategoryID = "video"
)

// builtinCategories returns the default category set. Patterns cover the
// common process names across macOS and Linux installs.
func builtinCategories() []Category {
	return []Category{
		{
			ID:   CategoryGames,
			Name: "Games",
			Patterns: []string{
				"Steam",
				"steam_osx",
				"steamwebhelper",
				"dota2",
				"Dota 2",
				"EpicGamesLauncher",
				"Battle.net",
			},
		},
		{
			ID:   CategorySocial,
			Name: "Social",
			Patterns: []string{
				"Discord",
				"Slack",
				"Telegram",
				"WhatsApp",
				"Signal",
			},
		},
		{
			ID:   CategoryVideo,
			Name: "Video",
			Patterns: []string{
				"vlc",
				"mpv",
				"QuickTime Player",
				"IINA",
			},
		},
	}
}
