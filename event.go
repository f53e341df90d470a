package xvc

import (
	"fmt"
	"time"
)

// EventType identifies what an Event reports.
type EventType int

const (
	// EventSegmentHeaderEncoded follows Encoder construction.
	EventSegmentHeaderEncoded EventType = iota
	// EventPictureEncoded follows every Encode call.
	EventPictureEncoded
	// EventSegmentHeaderDecoded follows an accepted segment header.
	EventSegmentHeaderDecoded
	// EventPictureDecoded follows every successful DecodePicture call.
	EventPictureDecoded
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventSegmentHeaderEncoded:
		return "SEGMENT_HEADER_ENCODED"
	case EventPictureEncoded:
		return "PICTURE_ENCODED"
	case EventSegmentHeaderDecoded:
		return "SEGMENT_HEADER_DECODED"
	case EventPictureDecoded:
		return "PICTURE_DECODED"
	default:
		return "UNKNOWN"
	}
}

// Event describes a unit produced or consumed by an Encoder or Decoder.
type Event struct {
	eventType EventType
	poc       int
	picType   string
	size      int64
	sse       uint64
	time      time.Time
}

// NewEvent creates an event stamped with the current time. poc is -1 for
// segment headers.
func NewEvent(eventType EventType, poc int, picType string, size int64, sse uint64) *Event {
	return &Event{eventType: eventType, poc: poc, picType: picType, size: size, sse: sse, time: time.Now()}
}

// Type returns the event type.
func (e *Event) Type() EventType { return e.eventType }

// Poc returns the picture order count, or -1.
func (e *Event) Poc() int { return e.poc }

// PicType returns the prediction type name of the picture.
func (e *Event) PicType() string { return e.picType }

// Size returns the size of the unit in bytes.
func (e *Event) Size() int64 { return e.size }

// SSE returns the weighted reconstruction error of an encoded picture.
func (e *Event) SSE() uint64 { return e.sse }

// Time returns when the event was created.
func (e *Event) Time() time.Time { return e.time }

func (e *Event) String() string {
	poc := ""
	if e.poc >= 0 {
		poc = fmt.Sprintf(", \"poc\": %d, \"pic_type\": \"%s\"", e.poc, e.picType)
	}
	sse := ""
	if e.eventType == EventPictureEncoded {
		sse = fmt.Sprintf(", \"sse\": %d", e.sse)
	}
	return fmt.Sprintf("{ \"type\":\"%s\"%s, \"size\":%d%s, \"time\":%d }", e.eventType, poc, e.size, sse,
		e.time.UnixNano()/1000000)
}

// Listener receives events from an Encoder or Decoder.
type Listener interface {
	ProcessEvent(evt *Event)
}

type listeners []Listener

func (ls listeners) notify(evt *Event) {
	for _, l := range ls {
		l.ProcessEvent(evt)
	}
}
