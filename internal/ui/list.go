package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/linkguard/internal/formatter"
	"github.com/desertthunder/linkguard/internal/models"
)

var (
	_ list.Item = linkItem{}
	_ list.Item = alertItem{}
)

// linkItem wraps [models.Link] to implement [list.Item].
type linkItem struct {
	link models.Link
}

func (i linkItem) FilterValue() string { return i.link.Title + " " + i.link.URL + " " + i.link.Page }
func (i linkItem) Title() string {
	return fmt.Sprintf("%s  %s", styles.status(i.link.Status), i.link.Title)
}
func (i linkItem) Description() string {
	desc := i.link.URL
	if i.link.Page != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.link.Page)
	}
	return fmt.Sprintf("%s • %d clicks • %s", desc, i.link.Clicks, formatter.FormatMoney(i.link.Revenue))
}

// alertItem wraps [models.Alert] to implement [list.Item].
type alertItem struct {
	alert models.Alert
	now   time.Time
}

func (i alertItem) FilterValue() string { return i.alert.Message }
func (i alertItem) Title() string {
	msg := i.alert.Message
	if i.alert.Read {
		msg = styles.muted.Render(msg)
	}
	return fmt.Sprintf("%s %s", styles.alert(i.alert.Type), msg)
}
func (i alertItem) Description() string {
	desc := formatter.FormatAgo(i.alert.Time, i.now)
	if !i.alert.Read {
		desc += " • unread"
	}
	return desc
}
