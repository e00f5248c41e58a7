package domain

// Seat is one numbered slot of a room's seat table. An empty User means the
// seat is vacant.
type Seat struct {
	Index  int    `json:"index"`
	User   UserID `json:"user,omitempty"`
	Muted  bool   `json:"muted"`
	Closed bool   `json:"closed"`
}

func (s Seat) Vacant() bool { return s.User == "" }

// SeatTable is a fixed-size array of seats. It validates every mutation
// against the seat invariants before applying it: a closed seat has no
// occupant, a seat has at most one occupant, a user holds at most one seat.
// Callers serialize access; the table itself is not locked.
type SeatTable struct {
	seats []Seat
}

func NewSeatTable(n int) *SeatTable {
	seats := make([]Seat, n)
	for i := range seats {
		seats[i].Index = i
	}
	return &SeatTable{seats: seats}
}

func (t *SeatTable) Len() int { return len(t.seats) }

func (t *SeatTable) Get(index int) (Seat, error) {
	if index < 0 || index >= len(t.seats) {
		return Seat{}, ErrSeatIndex
	}
	return t.seats[index], nil
}

// SeatOf reports which seat the user occupies, if any.
func (t *SeatTable) SeatOf(user UserID) (int, bool) {
	for i := range t.seats {
		if t.seats[i].User == user && user != "" {
			return i, true
		}
	}
	return 0, false
}

// Occupy places user on the seat and returns the updated snapshot.
func (t *SeatTable) Occupy(index int, user UserID) (Seat, error) {
	if index < 0 || index >= len(t.seats) {
		return Seat{}, ErrSeatIndex
	}
	seat := &t.seats[index]
	if seat.Closed {
		return Seat{}, ErrSeatClosed
	}
	if !seat.Vacant() {
		return Seat{}, ErrSeatOccupied
	}
	if _, seated := t.SeatOf(user); seated {
		return Seat{}, ErrUserAlreadySeated
	}
	seat.User = user
	return *seat, nil
}

// Vacate clears the seat's occupant and returns the previous one.
func (t *SeatTable) Vacate(index int) (UserID, error) {
	if index < 0 || index >= len(t.seats) {
		return "", ErrSeatIndex
	}
	seat := &t.seats[index]
	if seat.Vacant() {
		return "", ErrSeatEmpty
	}
	user := seat.User
	seat.User = ""
	return user, nil
}

// SetMute toggles the seat's mute flag. It is idempotent: the returned bool
// reports whether the flag actually changed.
func (t *SeatTable) SetMute(index int, muted bool) (Seat, bool, error) {
	if index < 0 || index >= len(t.seats) {
		return Seat{}, false, ErrSeatIndex
	}
	seat := &t.seats[index]
	if seat.Muted == muted {
		return *seat, false, nil
	}
	seat.Muted = muted
	return *seat, true, nil
}

// SetClosed toggles the seat's closed flag. Closing an occupied seat vacates
// it as part of the same mutation; the evicted user is returned so the caller
// can report both facts in a single event.
func (t *SeatTable) SetClosed(index int, closed bool) (Seat, bool, UserID, error) {
	if index < 0 || index >= len(t.seats) {
		return Seat{}, false, "", ErrSeatIndex
	}
	seat := &t.seats[index]
	if seat.Closed == closed {
		return *seat, false, "", nil
	}
	var evicted UserID
	if closed && !seat.Vacant() {
		evicted = seat.User
		seat.User = ""
	}
	seat.Closed = closed
	return *seat, true, evicted, nil
}

// Snapshot returns a copy of all seats in index order.
func (t *SeatTable) Snapshot() []Seat {
	out := make([]Seat, len(t.seats))
	copy(out, t.seats)
	return out
}
