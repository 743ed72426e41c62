package client

// LoginRequest is the body of the token endpoint request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by the token endpoint
type LoginResponse struct {
	Token string `json:"token"`
}
