package game

import "github.com/qwe3qwe3lott/Qwerty-crocodile-back/timer"

// RoomEvent names an observable room state change.
type RoomEvent string

const (
	EventUserJoined         RoomEvent = "userJoined"
	EventUserLeaved         RoomEvent = "userLeaved"
	EventOwnerIDIsChanged   RoomEvent = "ownerIdIsChanged"
	EventDrawEventsAreAdded RoomEvent = "drawEventsAreAdded"
	EventStateIsChanged     RoomEvent = "stateIsChanged"
	EventPlayersAreChanged  RoomEvent = "playersAreChanged"
)

// DrawEventType tags a canvas mutation instruction.
type DrawEventType string

const (
	DrawLine  DrawEventType = "line"
	DrawPath  DrawEventType = "path"
	DrawFill  DrawEventType = "fill"
	DrawImage DrawEventType = "image"
)

// Point is one node of a path event.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawEvent is one atomic canvas mutation. Which fields are meaningful
// depends on Type:
//
//	line:  Color, Width, X1, Y1, X2, Y2
//	path:  Color, Width, Nodes
//	fill:  Color
//	image: Data (RGBA), Width, Height, X, Y
//
// Events commute only along the authored sequence; replay applies them
// strictly in submission order.
type DrawEvent struct {
	Type   DrawEventType `json:"type"`
	Color  string        `json:"color,omitempty"`
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
	X1     float64       `json:"x1,omitempty"`
	Y1     float64       `json:"y1,omitempty"`
	X2     float64       `json:"x2,omitempty"`
	Y2     float64       `json:"y2,omitempty"`
	Nodes  []Point       `json:"nodes,omitempty"`
	Data   []byte        `json:"data,omitempty"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
}

// DrawEventsBatch is the payload of EventDrawEventsAreAdded. ArtistID is
// empty for internal clears.
type DrawEventsBatch struct {
	Events   []DrawEvent `json:"events"`
	ArtistID string      `json:"artistId"`
}

// StateSnapshot is the payload of EventStateIsChanged. It carries
// everything a subscriber needs so handlers never have to read the room
// back while the transition is still being applied. Players, ArtistID,
// Timer and Answer are set in the round state; Timer and Answer in
// timeout; nothing in idle.
type StateSnapshot struct {
	State    RoomState
	Players  []Player
	ArtistID string
	Timer    *timer.State
	Answer   *Answer
}
