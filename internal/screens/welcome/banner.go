package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/ui/theme"
)

const bannerArt = `███╗   ███╗ █████╗ ███████╗████████╗███████╗██████╗
████╗ ████║██╔══██╗██╔════╝╚══██╔══╝██╔════╝██╔══██╗
██╔████╔██║███████║███████╗   ██║   █████╗  ██████╔╝
██║╚██╔╝██║██╔══██║╚════██║   ██║   ██╔══╝  ██╔══██╗
██║ ╚═╝ ██║██║  ██║███████║   ██║   ███████╗██║  ██║
╚═╝     ╚═╝╚═╝  ╚═╝╚══════╝   ╚═╝   ╚══════╝╚═╝  ╚═╝
                   c l a s s`

// bannerMinWidth is the narrowest terminal that fits bannerArt.
const bannerMinWidth = 56

// RenderBanner draws the block-letter banner, or spaced capitals on narrow
// terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if width < bannerMinWidth {
		return style.Render("M A S T E R C L A S S")
	}
	return style.Render(bannerArt)
}
