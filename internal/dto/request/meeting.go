package request

type ListMeetingsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending scheduled completed cancelled"`
}

type SetMeetingLocationRequest struct {
	Location string `json:"location" validate:"required,url,max=500"`
}

type UpdateMeetingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}
