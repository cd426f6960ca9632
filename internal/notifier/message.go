// Package notifier announces committed registration and event changes to
// chat channels.
package notifier

import (
	"fmt"
	"strings"

	"github.com/gdg-garage/garage-events-api/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const dateLayout = "2006-01-02 15:04 MST"

// markup renders message text for one chat dialect. User supplied values go
// through escape so they are never read as formatting.
type markup struct {
	bold   func(string) string
	escape func(string) string
}

var discordEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `~`, `\~`, `|`, `\|`, `>`, `\>`,
)

var discordMarkup = markup{
	bold:   func(s string) string { return "**" + s + "**" },
	escape: discordEscaper.Replace,
}

// Telegram legacy Markdown: single asterisks for bold.
var telegramMarkup = markup{
	bold: func(s string) string { return "*" + s + "*" },
	escape: func(s string) string {
		return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
	},
}

func (m markup) registeredMessage(event *models.Event, reg *models.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s\n%s %s\n%s %s", m.bold("New registration"),
		m.bold("Event:"), m.escape(event.Title), m.bold("Attendee:"), m.escape(reg.Name))
	fmt.Fprintf(&b, "\n%s %s", m.bold("Date:"), event.EventDate.Format(dateLayout))
	fmt.Fprintf(&b, "\n%s %d/%d", m.bold("Seats:"), event.RegistrationCount, event.Capacity)
	return b.String()
}

func (m markup) canceledMessage(event *models.Event, reg *models.Registration) string {
	return fmt.Sprintf("😢 %s\n%s %s\n%s %s\n%s %d/%d", m.bold("Registration canceled"),
		m.bold("Event:"), m.escape(event.Title), m.bold("Attendee:"), m.escape(reg.Name),
		m.bold("Seats:"), event.RegistrationCount, event.Capacity)
}

func (m markup) eventDeletedMessage(event *models.Event) string {
	return fmt.Sprintf("🗑️ %s\n%s %s\n%s %s\n%s %d", m.bold("Event deleted"),
		m.bold("Event:"), m.escape(event.Title), m.bold("Date:"), event.EventDate.Format(dateLayout),
		m.bold("Registrations dropped:"), event.RegistrationCount)
}
