package agents

import (
	"fmt"

	"github.com/hive-mind/coordinator/internal/types"
)

// AgentColors holds ANSI escape sequences for styling an agent's CLI output
// (the hivectl status/monitor views), one scheme per types.AgentType.
type AgentColors struct {
	BgDark   string // Dark background tint for a status row
	BgBright string // Bright background for a banner/header
	FgColor  string // Foreground color for text
	Emoji    string // Emoji for quick visual identification
	Reset    string // Reset sequence to clear all formatting
}

var agentTypeColors = map[types.AgentType]AgentColors{
	types.TypeResearcher: {
		BgDark: "\x1b[48;2;5;30;15m", BgBright: "\x1b[48;2;34;197;94m",
		FgColor: "\x1b[38;2;34;197;94m", Emoji: "\U0001F7E2", // green circle
	},
	types.TypeCoder: {
		BgDark: "\x1b[48;2;2;25;35m", BgBright: "\x1b[48;2;14;165;233m",
		FgColor: "\x1b[38;2;14;165;233m", Emoji: "\U0001F535", // blue circle
	},
	types.TypeAnalyst: {
		BgDark: "\x1b[48;2;20;10;35m", BgBright: "\x1b[48;2;168;85;247m",
		FgColor: "\x1b[38;2;168;85;247m", Emoji: "\U0001F7E3", // purple circle
	},
	types.TypeTester: {
		BgDark: "\x1b[48;2;35;10;10m", BgBright: "\x1b[48;2;239;68;68m",
		FgColor: "\x1b[38;2;239;68;68m", Emoji: "\U0001F534", // red circle
	},
	types.TypeArchitect: {
		BgDark: "\x1b[48;2;35;27;3m", BgBright: "\x1b[48;2;234;179;8m",
		FgColor: "\x1b[38;2;234;179;8m", Emoji: "⭐", // star
	},
	types.TypeReviewer: {
		BgDark: "\x1b[48;2;5;25;30m", BgBright: "\x1b[48;2;6;182;212m",
		FgColor: "\x1b[38;2;6;182;212m", Emoji: "\U0001F441", // eye
	},
	types.TypeOptimizer: {
		BgDark: "\x1b[48;2;30;20;2m", BgBright: "\x1b[48;2;249;115;22m",
		FgColor: "\x1b[38;2;249;115;22m", Emoji: "⚡", // lightning bolt
	},
	types.TypeDocumenter: {
		BgDark: "\x1b[48;2;15;15;30m", BgBright: "\x1b[48;2;99;102;241m",
		FgColor: "\x1b[38;2;99;102;241m", Emoji: "\U0001F4DD", // memo
	},
	types.TypeCoordinator: {
		BgDark: "\x1b[48;2;30;25;10m", BgBright: "\x1b[48;2;217;119;6m",
		FgColor: "\x1b[38;2;217;119;6m", Emoji: "\U0001F451", // crown
	},
	types.TypeSpecialist: {
		BgDark: "\x1b[48;2;20;30;25m", BgBright: "\x1b[48;2;16;185;129m",
		FgColor: "\x1b[38;2;16;185;129m", Emoji: "\U0001F3AF", // dart/target
	},
}

var defaultAgentColors = AgentColors{
	BgDark: "\x1b[48;2;20;20;20m", BgBright: "\x1b[48;2;100;100;100m",
	FgColor: "\x1b[38;2;200;200;200m", Emoji: "⚪", // white circle
}

const ansiReset = "\x1b[0m"

// GetAgentColors returns the color scheme for an agent type, falling back to
// a neutral gray scheme for any type not in the built-in table.
func GetAgentColors(agentType types.AgentType) AgentColors {
	colors, ok := agentTypeColors[agentType]
	if !ok {
		colors = defaultAgentColors
	}
	colors.Reset = ansiReset
	return colors
}

// GenerateBanner renders a colored Unicode box banner identifying an agent,
// used by hivectl's status/monitor views.
func GenerateBanner(agentID string, agentType types.AgentType, role types.AgentRole) string {
	colors := GetAgentColors(agentType)
	blackText := "\x1b[38;2;0;0;0m"

	banner := fmt.Sprintf("%s%s\n", colors.BgBright, blackText)
	banner += "╔" + repeatRune('═', 58) + "╗\n"
	banner += fmt.Sprintf("║  %s %-10s │ %-20s ║\n", colors.Emoji, role, agentType)
	banner += fmt.Sprintf("║  Agent: %-44s ║\n", agentID)
	banner += "╚" + repeatRune('═', 58) + "╝\n"
	banner += colors.Reset

	return banner
}

func repeatRune(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

// GenerateBackgroundTint returns the ANSI escape sequence for an agent
// type's dark background tint, used for status-row shading.
func GenerateBackgroundTint(agentType types.AgentType) string {
	return GetAgentColors(agentType).BgDark
}
