package notifications

import "github.com/aretw0/rillweb/pkg/store"

// OverlayState is the visible progress indicator. A nil state means hidden.
type OverlayState struct {
	Title string `json:"title"`
}

// Overlay implements ports.Overlay.
type Overlay struct {
	state *store.Writable[*OverlayState]
}

// NewOverlay creates a hidden overlay.
func NewOverlay() *Overlay {
	return &Overlay{state: store.NewWritable[*OverlayState](nil)}
}

// Set shows the overlay with title.
func (o *Overlay) Set(title string) {
	o.state.Set(&OverlayState{Title: title})
}

// Clear hides the overlay.
func (o *Overlay) Clear() {
	o.state.Set(nil)
}

// Current returns the visible overlay, or nil.
func (o *Overlay) Current() *OverlayState {
	if cur := o.state.Get(); cur != nil {
		c := *cur
		return &c
	}
	return nil
}

// Subscribe registers fn for every change.
func (o *Overlay) Subscribe(fn func(*OverlayState)) (unsubscribe func()) {
	return o.state.Subscribe(fn)
}
