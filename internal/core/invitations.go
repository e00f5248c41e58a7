package core

import (
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InvitationRegistry tracks the outstanding handshakes of one room. A timeout
// firing concurrently with an explicit resolve is settled by whichever
// transition lands first under the registry lock; the loser gets
// ErrAlreadyResolved.
type InvitationRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	invites map[string]*inviteEntry
	// onExpire runs outside the lock after a timeout wins the race.
	onExpire func(domain.Invitation)
}

type inviteEntry struct {
	inv   domain.Invitation
	timer *time.Timer
}

func NewInvitationRegistry(ttl time.Duration, onExpire func(domain.Invitation)) *InvitationRegistry {
	return &InvitationRegistry{
		ttl:      ttl,
		invites:  make(map[string]*inviteEntry),
		onExpire: onExpire,
	}
}

// Create stores a pending invitation and arms its timeout. It returns
// immediately; the handshake resolves asynchronously.
func (r *InvitationRegistry) Create(from, to domain.UserID, cmd, content string) domain.Invitation {
	inv := domain.Invitation{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Cmd:       cmd,
		Content:   content,
		State:     domain.InvitePending,
		CreatedAt: time.Now(),
	}
	entry := &inviteEntry{inv: inv}
	entry.timer = time.AfterFunc(r.ttl, func() { r.expire(inv.ID) })

	r.mu.Lock()
	r.invites[inv.ID] = entry
	r.mu.Unlock()

	log.Debug().Str("module", "core.invites").Str("id", inv.ID).Str("from", string(from)).Str("to", string(to)).Str("cmd", cmd).Msg("invitation created")
	return inv
}

func (r *InvitationRegistry) Get(id string) (domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.invites[id]
	if !ok {
		return domain.Invitation{}, domain.ErrUnknownInvitation
	}
	return entry.inv, nil
}

// Resolve moves a pending invitation to the given terminal state and stops
// its timer. Exactly one caller wins; later ones fail ErrAlreadyResolved.
func (r *InvitationRegistry) Resolve(id string, outcome domain.InviteState) (domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.invites[id]
	if !ok {
		return domain.Invitation{}, domain.ErrUnknownInvitation
	}
	if entry.inv.State.Terminal() {
		return domain.Invitation{}, domain.ErrAlreadyResolved
	}
	entry.inv.State = outcome
	entry.timer.Stop()
	log.Debug().Str("module", "core.invites").Str("id", id).Str("state", outcome.String()).Msg("invitation resolved")
	return entry.inv, nil
}

func (r *InvitationRegistry) expire(id string) {
	r.mu.Lock()
	entry, ok := r.invites[id]
	if !ok || entry.inv.State.Terminal() {
		r.mu.Unlock()
		return
	}
	entry.inv.State = domain.InviteExpired
	inv := entry.inv
	r.mu.Unlock()

	log.Debug().Str("module", "core.invites").Str("id", id).Msg("invitation expired")
	if r.onExpire != nil {
		r.onExpire(inv)
	}
}

// CancelAll forces every pending invitation to cancelled and stops its
// timer. Used on room destruction.
func (r *InvitationRegistry) CancelAll() []domain.Invitation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cancelled []domain.Invitation
	for _, entry := range r.invites {
		if entry.inv.State.Terminal() {
			continue
		}
		entry.inv.State = domain.InviteCancelled
		entry.timer.Stop()
		cancelled = append(cancelled, entry.inv)
	}
	return cancelled
}

func (r *InvitationRegistry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, entry := range r.invites {
		if !entry.inv.State.Terminal() {
			n++
		}
	}
	return n
}
