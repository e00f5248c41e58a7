package domain

import "github.com/go-playground/validator/v10"

type RoomID int32

// RoomParams describes a room at creation time. SeatCount is fixed for the
// room's whole lifetime.
type RoomParams struct {
	Name             string `json:"name" validate:"required,max=64"`
	CoverURL         string `json:"cover_url,omitempty" validate:"omitempty,max=256"`
	SeatCount        int    `json:"seat_count" validate:"required,min=1,max=64"`
	RequiresApproval bool   `json:"requires_approval"`
}

var validate = validator.New()

func (p RoomParams) Validate() error {
	return validate.Struct(p)
}

// RoomInfo is the broadcastable metadata of a live room.
type RoomInfo struct {
	ID     RoomID     `json:"id"`
	Host   UserID     `json:"host"`
	Params RoomParams `json:"params"`
}
