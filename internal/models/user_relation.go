package models

import (
	"sort"
	"time"
)

// EdgeState defines how a user sees one peer.
type EdgeState string

const (
	// EdgeFriend means the friend request was accepted and both users are friends.
	EdgeFriend EdgeState = "friend"

	// EdgeOutgoing means the owner sent a request the peer has not answered yet.
	EdgeOutgoing EdgeState = "outgoing"

	// EdgeIncoming means the peer sent the owner a request.
	EdgeIncoming EdgeState = "incoming"
)

// Mirror returns the state the peer must hold for the edge to be symmetric.
func (s EdgeState) Mirror() EdgeState {
	switch s {
	case EdgeOutgoing:
		return EdgeIncoming
	case EdgeIncoming:
		return EdgeOutgoing
	default:
		return s
	}
}

// RelationshipRecord is the per-user version row guarding conditional writes.
type RelationshipRecord struct {
	UserID    string `gorm:"primaryKey;size:64"`
	Version   int64  `gorm:"not null"`
	UpdatedAt time.Time
}

// RelationshipEdge is one side of an edge as stored for its owner.
// The primary key is a composite of (OwnerID, PeerID), so a peer can only
// be in one of the owner's sets at a time.
type RelationshipEdge struct {
	OwnerID   string    `gorm:"primaryKey;size:64"`
	PeerID    string    `gorm:"primaryKey;size:64"`
	State     EdgeState `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
}

// Relationships is the in-memory form of a user's relationship record.
type Relationships struct {
	UserID  string
	Version int64
	Edges   map[string]EdgeState
}

// NewRelationships returns an empty record for the given user.
func NewRelationships(userID string) *Relationships {
	return &Relationships{
		UserID: userID,
		Edges:  make(map[string]EdgeState),
	}
}

// State reports the owner's state toward peer.
func (r *Relationships) State(peer string) (EdgeState, bool) {
	s, ok := r.Edges[peer]
	return s, ok
}

// Set replaces whatever state the owner had toward peer.
func (r *Relationships) Set(peer string, state EdgeState) {
	if r.Edges == nil {
		r.Edges = make(map[string]EdgeState)
	}
	r.Edges[peer] = state
}

// Remove drops peer from every set.
func (r *Relationships) Remove(peer string) {
	delete(r.Edges, peer)
}

// Friends returns the confirmed friends, sorted.
func (r *Relationships) Friends() []string { return r.peersIn(EdgeFriend) }

// Incoming returns the peers who requested the owner, sorted.
func (r *Relationships) Incoming() []string { return r.peersIn(EdgeIncoming) }

// Outgoing returns the peers the owner requested, sorted.
func (r *Relationships) Outgoing() []string { return r.peersIn(EdgeOutgoing) }

func (r *Relationships) peersIn(state EdgeState) []string {
	peers := make([]string, 0)
	for peer, s := range r.Edges {
		if s == state {
			peers = append(peers, peer)
		}
	}
	sort.Strings(peers)
	return peers
}

// Clone returns a deep copy.
func (r *Relationships) Clone() *Relationships {
	c := &Relationships{
		UserID:  r.UserID,
		Version: r.Version,
		Edges:   make(map[string]EdgeState, len(r.Edges)),
	}
	for peer, s := range r.Edges {
		c.Edges[peer] = s
	}
	return c
}

// Sets returns the wire form of the record.
func (r *Relationships) Sets() RelationshipSets {
	return RelationshipSets{
		Friends:  r.Friends(),
		Incoming: r.Incoming(),
		Outgoing: r.Outgoing(),
	}
}

// RelationshipSets is the three-set view sent to clients.
type RelationshipSets struct {
	Friends  []string `json:"friends"`
	Incoming []string `json:"pending_incoming"`
	Outgoing []string `json:"pending_outgoing"`
}
