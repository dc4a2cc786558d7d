package transfer

type AccountConnection struct {
	Platform          string `json:"platform"`
	AccountName       string `json:"account_name"`
	ExternalAccountID string `json:"external_account_id"`
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
}

type AccountReconnection struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
