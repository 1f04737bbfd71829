// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// Views:
//  1. [LinksView] : browse links, filter by status, re-check and delete
//  2. [AlertsView] : browse alerts, mark read and delete
//  3. [UploadView] : monitor a CSV upload through its progress updates
//  4. [ResultView] : per-row outcome of the upload
//  5. [ExpiredView] : shown when the backend ends the session
//
// The [Model] holds no collection state of its own: every action goes through the link and alert stores and the
// lists are rebuilt from store snapshots when the action completes.
package ui
