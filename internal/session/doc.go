// Package session runs the spectate state machine for one match at a time.
//
// # Stages
//
//	Idle -> Launching -> AwaitingProcess -> AwaitingGameReady
//	     -> AwaitingTelemetry -> CameraFocus -> Active
//
// Launching and CameraFocus are single attempts. The three Awaiting
// stages poll on a fixed interval until their gate opens or a timeout
// elapses:
//
//	AwaitingProcess     every 1s, up to 45s   viewer process exists
//	AwaitingGameReady   every 5s, up to 60s   game clock past 1s
//	AwaitingTelemetry   every 2s, up to 30s   player list non-empty
//
// A short settle delay separates telemetry readiness from camera focus.
// A camera failure is logged and the session still becomes Active.
//
// # Teardown
//
// Any failure, and Stop, moves the session through Stopping: the viewer
// is killed once, a started broadcast is stopped, and the controller
// returns to Idle keeping LastError. Teardown uses its own deadline so it
// completes even when the caller's context is already cancelled. Finish
// is the quiet variant used when the viewer closed by itself.
package session
