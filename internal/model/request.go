package model

type BulkRequest struct {
	Items []BulkItem `json:"items"`
}

type BulkPurgeRequest struct {
	Items   []BulkItem `json:"items"`
	Confirm bool       `json:"confirm"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
