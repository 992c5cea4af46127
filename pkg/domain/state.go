package domain

// ActiveEntity is the UI-level object the user is currently focused on.
type ActiveEntity struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id,omitempty"`
	Name string     `json:"name"`
}

// AppState is the application wide state tracked by the app store.
type AppState struct {
	// ActiveEntity is the entity currently in focus. Nil until the first update.
	ActiveEntity *ActiveEntity `json:"activeEntity,omitempty"`

	// PreviousActiveEntity holds the value ActiveEntity had before the most recent update.
	PreviousActiveEntity *ActiveEntity `json:"previousActiveEntity,omitempty"`
}

// Snapshot returns a copy of the state that shares no pointers with the receiver.
func (s AppState) Snapshot() AppState {
	out := AppState{}
	if s.ActiveEntity != nil {
		e := *s.ActiveEntity
		out.ActiveEntity = &e
	}
	if s.PreviousActiveEntity != nil {
		e := *s.PreviousActiveEntity
		out.PreviousActiveEntity = &e
	}
	return out
}
