package dto

type CategoryFilters struct {
	OwnerID  int64
	Page     int
	PageSize int
}
