package auth

// OTPSendRequest es el body de POST /api/v1/auth/otp/send
type OTPSendRequest struct {
	Identifier string `json:"identifier"`
	// Type: login | register | reset_password | verify. Default: login.
	Type string `json:"type,omitempty"`
}

// OTPSendResponse confirma el despacho sin revelar si el identificador existe.
type OTPSendResponse struct {
	Sent bool `json:"sent"`
}

// OTPLoginRequest es el body de POST /api/v1/auth/otp/login
type OTPLoginRequest struct {
	PoolID     string `json:"pool_id,omitempty"`
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}
