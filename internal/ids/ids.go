package ids

import "github.com/segmentio/ksuid"

// New returns a K-sortable id: a timestamp followed by a random payload.
func New() string {
	return ksuid.New().String()
}

func WithPrefix(prefix string) string {
	return prefix + "-" + New()
}
