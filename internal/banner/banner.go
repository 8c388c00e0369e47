package banner

import (
	"loadprobe/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    __                 __                 __        
   / /___  ____ _____/ /___  _________  / /_  ___ 
  / / __ \/ __ '/ __  / __ \/ ___/ __ \/ __ \/ _ \
 / / /_/ / /_/ / /_/ / /_/ / /  / /_/ / /_/ /  __/
/_/\____/\__,_/\__,_/ .___/_/   \____/_.___/\___/ 
                   /_/                            `

	return "\n" + style.Render(ascii) + "\n"
}
