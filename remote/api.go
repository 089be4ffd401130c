package remote

// Paths served by the remote host.
const (
	PathScreen   = "/screen"
	PathMouse    = "/mouse"
	PathKeyboard = "/keyboard"
)

// Mouse actions.
const (
	ActionMove  = "move"
	ActionClick = "click"
)

// ScreenResponse is the body of a successful GET /screen.
type ScreenResponse struct {
	Image string `json:"image"`
}

// MouseRequest is the body of POST /mouse. Button is only set for clicks.
type MouseRequest struct {
	Action string `json:"action"`
	Button string `json:"button,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// KeyboardRequest is the body of POST /keyboard.
type KeyboardRequest struct {
	Key string `json:"key"`
}
