package models

type PingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error Error `json:"error"`
}

type UsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}
