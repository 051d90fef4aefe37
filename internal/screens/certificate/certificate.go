// Package certificate renders the course completion certificate.
package certificate

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// DateLayout is how the issue date is printed.
const DateLayout = "2 January 2006"

// CertificateScreen shows an issued certificate.
type CertificateScreen struct {
	cert engine.Certificate
}

var _ screen.Screen = (*CertificateScreen)(nil)

func New(cert engine.Certificate) *CertificateScreen {
	return &CertificateScreen{cert: cert}
}

func (c *CertificateScreen) Init() tea.Cmd { return nil }

func (c *CertificateScreen) Title() string { return "Certificate" }

func (c *CertificateScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Close"}}
}

func (c *CertificateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		return c, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return c, nil
}

func (c *CertificateScreen) View(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, Render(c.cert))
}

// Render draws cert as a framed block of text.
func Render(cert engine.Certificate) string {
	lines := []string{
		theme.Subtitle.Render("CERTIFICATE OF COMPLETION"),
		"",
		theme.Body.Render("This certifies that"),
		"",
		theme.Points.Render(cert.LearnerName),
		"",
		theme.Body.Render("has successfully completed"),
		theme.Title.Render(cert.Course),
		"",
		theme.Hint.Render("Issued on " + cert.IssuedOn.Format(DateLayout)),
	}
	return theme.Certificate.Render(strings.Join(lines, "\n"))
}
