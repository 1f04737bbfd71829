package ui

import (
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/session"
	"github.com/desertthunder/linkguard/internal/tasks"
)

// linksLoadedMsg reports a finished link reload; the store already holds the result.
type linksLoadedMsg struct{ err error }

type alertsLoadedMsg struct{ err error }

// actionDoneMsg reports a finished mutation with a notice to show on success.
type actionDoneMsg struct {
	notice string
	err    error
}

type progressMsg tasks.ProgressUpdate

type uploadDoneMsg struct {
	result *models.BulkUploadResult
	err    error
}

type sessionMsg session.Event
