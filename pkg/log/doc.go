/*
Package log provides structured logging for aegis using zerolog.

It wraps zerolog to give every subsystem (resolver, gate, planner,
bootstrap, session) a component-scoped child logger, a single global level,
and a choice of JSON or console output. There is no log rotation built in;
operators are expected to run aegis under a supervisor that handles that
(systemd, a container runtime's log driver, logrotate).

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	gateLog := log.WithComponent("gate")
	gateLog.Warn().Str("actor", actor).Str("scope", scope).Msg("insufficient permission")

	plannerLog := log.WithComponent("planner")
	plannerLog.Error().Err(err).Msg("flush failed, batch dropped")

Component loggers are created once per subsystem and held on the owning
struct (e.g. the planner holds its own `zerolog.Logger`) rather than
re-derived from the global `Logger` on every call.
*/
package log
