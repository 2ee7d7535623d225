package domain

type RequestStats struct {
	ByStatus        map[RequestStatus]int64 `json:"by_status"`
	OverdueActive   int64                   `json:"overdue_active"`
	Donors          int64                   `json:"donors"`
	AvailableDonors int64                   `json:"available_donors"`
}
