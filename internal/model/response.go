package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// DeletedListData is the explorer response body.
type DeletedListData struct {
	Groups []DeletedGroup `json:"groups"`
}

type CollectionListData struct {
	Items []CollectionSummary `json:"items"`
}

type RecordListData struct {
	Items []Record `json:"items"`
}

type DeleteManyData struct {
	Count int64 `json:"count"`
}
