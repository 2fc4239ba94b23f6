package session

// DefaultPrefix is the key namespace used when a [Store] is created with an
// empty prefix.
const DefaultPrefix = "refresh"

// Key addresses one device-scoped session record.
type Key struct {
	UserID string
	Device string
}

// String renders the Redis key for k under prefix.
func (k Key) String(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + k.UserID + ":" + k.Device
}
