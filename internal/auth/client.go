package auth

// ClientType distinguishes anonymous from identified callers.
type ClientType int

const (
	// ClientAnonymous is a caller that presented no API key.
	ClientAnonymous ClientType = iota
	// ClientIdentified is a caller that presented a known API key.
	ClientIdentified
)

// String returns the string representation of the client type.
func (t ClientType) String() string {
	switch t {
	case ClientIdentified:
		return "identified"
	default:
		return "anonymous"
	}
}

// Client is the identity attached to a request.
type Client struct {
	Type ClientType
	// Key is the presented API key. Empty for anonymous clients.
	Key string
	// Name is the configured name of the key owner.
	Name string
}

// Anonymous returns the anonymous client.
func Anonymous() Client {
	return Client{Type: ClientAnonymous}
}

// Identified returns an identified client.
func Identified(key, name string) Client {
	return Client{Type: ClientIdentified, Key: key, Name: name}
}

// IsIdentified reports whether the client presented a known key.
func (c Client) IsIdentified() bool {
	return c.Type == ClientIdentified
}
