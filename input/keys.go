package input

// Button identifies a mouse button on the remote host.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Keys is the catalog of named keys the client can press on the remote host.
var Keys = []string{"enter", "space", "backspace", "tab", "esc"}

// KnownKey reports whether key is in the catalog.
func KnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// KnownButton reports whether b is a button the client can click.
func KnownButton(b Button) bool {
	return b == ButtonLeft || b == ButtonRight
}
