package viewport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkordes/travel-diary/internal/domain"
)

// CommandKind names a MapView call.
type CommandKind string

const (
	CommandAnimate CommandKind = "animate_to_region"
	CommandFit     CommandKind = "fit_to_coordinates"
)

// Command is one recorded MapView call.
type Command struct {
	Seq        uint64            `json:"seq"`
	Kind       CommandKind       `json:"kind"`
	Region     *domain.Region    `json:"region,omitempty"`
	DurationMS int64             `json:"duration_ms,omitempty"`
	Points     []domain.GeoPoint `json:"points,omitempty"`
	Padding    *EdgePadding      `json:"padding,omitempty"`
	Animated   bool              `json:"animated"`
}

const commandLogSize = 64

// CommandLog is a MapView that records commands for a renderer living in
// another process to poll. Only the latest commandLogSize entries are kept.
type CommandLog struct {
	mu   sync.Mutex
	seq  uint64
	cmds []Command
}

// NewCommandLog returns an empty CommandLog.
func NewCommandLog() *CommandLog { return &CommandLog{} }

func (l *CommandLog) AnimateToRegion(r domain.Region, d time.Duration) {
	l.append(Command{Kind: CommandAnimate, Region: &r, DurationMS: d.Milliseconds(), Animated: true})
}

func (l *CommandLog) FitToCoordinates(points []domain.GeoPoint, padding EdgePadding, animated bool) {
	pts := append([]domain.GeoPoint(nil), points...)
	l.append(Command{Kind: CommandFit, Points: pts, Padding: &padding, Animated: animated})
}

func (l *CommandLog) append(c Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	c.Seq = l.seq
	l.cmds = append(l.cmds, c)
	if len(l.cmds) > commandLogSize {
		l.cmds = append([]Command(nil), l.cmds[len(l.cmds)-commandLogSize:]...)
	}
}

// Since returns the retained commands with Seq > seq, oldest first.
func (l *CommandLog) Since(seq uint64) []Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Command{}
	for _, c := range l.cmds {
		if c.Seq > seq {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent command.
func (l *CommandLog) Last() (Command, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.cmds) == 0 {
		return Command{}, false
	}
	return l.cmds[len(l.cmds)-1], true
}

// LastKnownLocation is a LocationProvider fed by the UI. Until a location
// was reported it behaves like denied permission.
type LastKnownLocation struct {
	mu sync.Mutex
	p  *domain.GeoPoint
}

// Set stores the latest device position.
func (l *LastKnownLocation) Set(p domain.GeoPoint) error {
	if !p.Valid() {
		return fmt.Errorf("viewport.LastKnownLocation.Set: %w: invalid location", domain.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.p = &p
	return nil
}

func (l *LastKnownLocation) CurrentLocation(context.Context) (domain.GeoPoint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.p == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: location not available", domain.ErrPermission)
	}
	return *l.p, nil
}
