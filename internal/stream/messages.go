package stream

import "github.com/san-kum/gravsim/internal/render"

const (
	MessageTypeFrame = "frame"
	MessageTypeEnd   = "end"
	MessageTypeInfo  = "info"

	CommandPause  = "pause"
	CommandResume = "resume"
	CommandReset  = "reset"
)

// BodyMessage carries one instance. Position is in simulation units, Center
// in scene units.
type BodyMessage struct {
	Label    string     `json:"label"`
	Position [3]float64 `json:"position"`
	Center   [3]float64 `json:"center"`
	Diameter float64    `json:"diameter"`
	Angle    float64    `json:"angle"`
	Tilt     float64    `json:"tilt"`
}

type FrameMessage struct {
	Type   string        `json:"type"`
	Seq    int           `json:"seq"`
	T      float64       `json:"t"`
	Scale  float64       `json:"scale"`
	Bodies []BodyMessage `json:"bodies"`
}

type EndMessage struct {
	Type   string `json:"type"`
	Frames int    `json:"frames"`
	Error  string `json:"error,omitempty"`
}

type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CommandMessage is sent by clients to control their run.
type CommandMessage struct {
	Type string `json:"type"`
}

func NewFrameMessage(seq int, f render.Frame) FrameMessage {
	msg := FrameMessage{
		Type:   MessageTypeFrame,
		Seq:    seq,
		T:      f.T,
		Scale:  f.Scale,
		Bodies: make([]BodyMessage, 0, len(f.Instances)),
	}
	for _, in := range f.Instances {
		msg.Bodies = append(msg.Bodies, BodyMessage{
			Label:    in.Label,
			Position: in.Position,
			Center:   in.Center(),
			Diameter: in.Diameter,
			Angle:    in.Angle,
			Tilt:     in.Tilt,
		})
	}
	return msg
}
