package physics

import "fmt"

// ParticipantKind tags the variant held by a Participant.
type ParticipantKind uint8

const (
	ParticipantBall ParticipantKind = iota + 1
	ParticipantCluster
	ParticipantBorder
)

func (k ParticipantKind) String() string {
	switch k {
	case ParticipantBall:
		return "ball"
	case ParticipantCluster:
		return "cluster"
	case ParticipantBorder:
		return "border"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ClusterID identifies a RotatingBallCluster within one engine.
type ClusterID int

// Participant is one side of a Collision: a ball, the cluster, or the border.
// It carries an ID only, never a pointer, so records stay valid to compare
// after the object they name is gone.
type Participant struct {
	Kind ParticipantKind
	ID   int
}

func BallParticipant(id BallID) Participant {
	return Participant{Kind: ParticipantBall, ID: int(id)}
}

func ClusterParticipant(id ClusterID) Participant {
	return Participant{Kind: ParticipantCluster, ID: int(id)}
}

func BorderParticipant() Participant {
	return Participant{Kind: ParticipantBorder}
}

func (p Participant) String() string {
	if p.Kind == ParticipantBorder {
		return "border"
	}
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// less gives participants a total order for unordered pair keys.
func (p Participant) less(o Participant) bool {
	if p.Kind != o.Kind {
		return p.Kind < o.Kind
	}
	return p.ID < o.ID
}

// Collision is a predicted contact between two participants at an absolute
// simulation time.
type Collision struct {
	A, B Participant
	Time float64

	// degenerate marks an immediate collision recorded because the bodies
	// already overlapped without separating.
	degenerate bool
}

// NewCollision orders the participants so equal pairs compare equal.
func NewCollision(a, b Participant, t float64) Collision {
	if b.less(a) {
		a, b = b, a
	}
	return Collision{A: a, B: b, Time: t}
}

// Involves reports whether p is one of the collision's participants.
func (c Collision) Involves(p Participant) bool {
	return c.A == p || c.B == p
}

func (c Collision) samePair(a, b Participant) bool {
	return (c.A == a && c.B == b) || (c.A == b && c.B == a)
}

func (c Collision) String() string {
	return fmt.Sprintf("%s<->%s@%.6f", c.A, c.B, c.Time)
}

// collisionSet holds pending collisions, at most one per unordered pair.
type collisionSet struct {
	items []Collision
}

// add records c unless its pair is already recorded.
func (s *collisionSet) add(c Collision) bool {
	if s.has(c.A, c.B) {
		return false
	}
	s.items = append(s.items, c)
	return true
}

func (s *collisionSet) has(a, b Participant) bool {
	for _, c := range s.items {
		if c.samePair(a, b) {
			return true
		}
	}
	return false
}

// invalidate drops every collision that references p and returns how many
// were dropped.
func (s *collisionSet) invalidate(p Participant) int {
	kept := s.items[:0]
	for _, c := range s.items {
		if !c.Involves(p) {
			kept = append(kept, c)
		}
	}
	dropped := len(s.items) - len(kept)
	s.items = kept
	return dropped
}

func (s *collisionSet) remove(target Collision) {
	kept := s.items[:0]
	for _, c := range s.items {
		if !c.samePair(target.A, target.B) {
			kept = append(kept, c)
		}
	}
	s.items = kept
}

func (s *collisionSet) clear() {
	s.items = s.items[:0]
}

func (s *collisionSet) len() int { return len(s.items) }

// earliest returns the pending collision with the smallest time. Ties keep
// detection order.
func (s *collisionSet) earliest() (Collision, bool) {
	if len(s.items) == 0 {
		return Collision{}, false
	}
	best := s.items[0]
	for _, c := range s.items[1:] {
		if c.Time < best.Time {
			best = c
		}
	}
	return best, true
}

// snapshot copies the pending collisions.
func (s *collisionSet) snapshot() []Collision {
	return append([]Collision(nil), s.items...)
}
