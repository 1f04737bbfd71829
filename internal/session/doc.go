// Package session owns the authenticated-session lifecycle.
//
// A [Manager] starts in [StatusRestoring] and resolves to [StatusAuthenticated] or [StatusAnonymous] once
// [Manager.Restore] runs. Login and signup move it to authenticated; logout and forced expiry move it back to
// anonymous and erase the persisted credential. The user snapshot is present exactly when the session is
// authenticated.
//
// Every transition bumps an epoch. A login, signup or restore response that completes after the epoch moved
// is dropped with [shared.ErrStaleResponse] instead of resurrecting an old session.
//
// Listeners registered with [Manager.Subscribe] receive an [Event] per transition. [ReasonExpired] lets a UI
// show a "session expired" notice instead of a logout confirmation.
package session
