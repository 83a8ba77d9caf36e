package render

import (
	"fmt"
	"strings"

	"github.com/Jce-C/megregalo/internal/cascade"
)

const (
	ClassMessage = "neon-text"
	ClassPhoto   = "photo-frame"
	ClassHeart   = "heart"
)

// Element is the presentation of one item, ready for the page to mount.
type Element struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Class   string `json:"class"`
	Tag     string `json:"tag"`
	Content string `json:"content"`
	Style   string `json:"style"`
}

type Surface struct{}

func (Surface) Element(item cascade.Item) Element {
	el := Element{
		ID:      item.ID,
		Kind:    string(item.Kind),
		Content: item.Content,
		Tag:     "div",
	}

	st := item.Style
	decls := []string{fmt.Sprintf("left: %.2f%%", st.LeftPercent)}

	switch item.Kind {
	case cascade.KindPhoto:
		el.Class = ClassPhoto
		el.Tag = "img"
		decls = append(decls,
			fmt.Sprintf("width: %.2fpx", st.SizePx),
			fmt.Sprintf("height: %.2fpx", st.SizePx),
		)
	case cascade.KindHeart:
		el.Class = ClassHeart
		decls = append(decls, fmt.Sprintf("font-size: %.2fpx", st.FontSizePx))
	default:
		el.Class = ClassMessage
		decls = append(decls, fmt.Sprintf("font-size: %.2fpx", st.FontSizePx))
	}

	if item.Kind != cascade.KindHeart {
		decls = append(decls, fmt.Sprintf("transform: rotate(%.2fdeg)", st.RotationDeg))
	}
	decls = append(decls,
		fmt.Sprintf("animation-duration: %.3fs", st.Duration.Seconds()),
		fmt.Sprintf("animation-delay: %.3fs", st.Delay.Seconds()),
	)

	el.Style = strings.Join(decls, "; ")
	return el
}

func (s Surface) Elements(items []cascade.Item) []Element {
	out := make([]Element, 0, len(items))
	for _, item := range items {
		out = append(out, s.Element(item))
	}
	return out
}
