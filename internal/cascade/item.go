package cascade

import "time"

type Kind string

const (
	KindMessage Kind = "message"
	KindPhoto   Kind = "photo"
	KindHeart   Kind = "heart"
)

// Style holds the randomized presentation of an item. FontSizePx is unset
// for photos and SizePx is unset for text items.
type Style struct {
	LeftPercent float64
	FontSizePx  float64
	SizePx      float64
	RotationDeg float64
	Duration    time.Duration
	Delay       time.Duration
}

// Item is one floating element of the scene.
type Item struct {
	ID       string
	Kind     Kind
	Content  string
	Style    Style
	Lifetime time.Duration
}
