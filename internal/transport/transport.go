package transport

// The chat platform itself is an external collaborator. The core only depends
// on this package: inbound events arrive as Event values, outbound output
// leaves through the Transport interface. All outbound calls are fire-and-forget
// best-effort; failures are logged by the caller, never retried.

// Field is one labelled value inside a View.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// View is a transport-neutral renderable unit (the platform's message/embed).
type View struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Image       string  `json:"image,omitempty"`
	IsError     bool    `json:"is_error,omitempty"`
}

// Transport delivers core output to the platform.
type Transport interface {
	// Render replaces the content shown on a surface.
	Render(surfaceId string, view View) error
	// AddAffordances enables the given interactive control ids on a surface.
	AddAffordances(surfaceId string, ids []string) error
	// RemoveAffordances strips all interactive controls from a surface.
	RemoveAffordances(surfaceId string) error
	// SendEphemeral shows a private notice to one user only.
	SendEphemeral(userId string, view View) error
}

// Command is a plain one-shot invocation ("add", "list", ...).
type Command struct {
	Name string   `json:"name" validate:"required"`
	Args []string `json:"args,omitempty"`
}

// Component is an interaction with an affordance on a live surface. Action is
// the affordance id; Value carries the selected option or submitted input.
type Component struct {
	Action string `json:"action" validate:"required"`
	Value  string `json:"value,omitempty"`
}

// Event is one inbound platform event. Exactly one of Command and Component
// is set.
type Event struct {
	Id        string     `json:"id"`
	SurfaceId string     `json:"surface_id" validate:"required"`
	UserId    string     `json:"user_id"`
	Command   *Command   `json:"command,omitempty" validate:"required_without=Component,excluded_with=Component"`
	Component *Component `json:"component,omitempty"`
}
