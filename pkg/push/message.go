package push

// Update carries one re-rendered component to the client, which replaces
// the DOM subtree with the matching id wholesale.
type Update struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// ServerMessage is a server-to-client message on the persistent channel.
// Type is "update" (Payload set), "eval" (Code set), or "error"
// (Message set).
type ServerMessage struct {
	Type    string   `json:"type"`
	Payload []Update `json:"payload,omitempty"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// ClientMessage is a client-to-server message on the persistent channel.
type ClientMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Value     any    `json:"value"`
	CSRFToken string `json:"_csrf_token"`
}

// Engine is the transport surface the widget layer needs: the attributes
// that make a rendered element interactive under this transport.
type Engine interface {
	// ClickAttrs returns the HTML attributes wiring a component's click
	// to its registered action.
	ClickAttrs(componentID string) map[string]string
}
