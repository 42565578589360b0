package model

import "log/slog"

// ActorKind classifies who performed a deletion.
type ActorKind string

const (
	ActorKindAdmin  ActorKind = "admin"
	ActorKindAPI    ActorKind = "api"
	ActorKindSystem ActorKind = "system"
)

func (k ActorKind) Valid() bool {
	switch k {
	case ActorKindAdmin, ActorKindAPI, ActorKindSystem:
		return true
	}
	return false
}

// Actor is the authenticated principal of a request.
type Actor struct {
	ID       string    `json:"id,omitempty"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role,omitempty"`
	Kind     ActorKind `json:"kind,omitempty"`
	IP       string    `json:"ip,omitempty"`
}

// SystemActor is used by background jobs such as the retention sweeper.
func SystemActor(name string) *Actor {
	return &Actor{ID: name, Username: name, Role: "system", Kind: ActorKindSystem}
}

// StampKind is the kind recorded when this actor soft-deletes a record:
// its own kind when valid, admin otherwise, and api when there is no actor.
func (a *Actor) StampKind() ActorKind {
	switch {
	case a == nil:
		return ActorKindAPI
	case a.Kind.Valid():
		return a.Kind
	default:
		return ActorKindAdmin
	}
}

// LogValue renders the actor as an id/username/kind group in log lines.
func (a *Actor) LogValue() slog.Value {
	if a == nil {
		return slog.GroupValue(slog.String("kind", string(ActorKindAPI)))
	}
	attrs := []slog.Attr{slog.String("id", a.ID)}
	if a.Username != "" {
		attrs = append(attrs, slog.String("username", a.Username))
	}
	attrs = append(attrs, slog.String("kind", string(a.StampKind())))
	return slog.GroupValue(attrs...)
}
