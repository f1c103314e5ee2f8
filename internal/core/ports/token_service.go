package ports

// TokenService issues and verifies the signed token pair. Access and refresh
// tokens are signed with distinct secrets and expiries.
//
// Verify methods fail with domain.ErrTokenExpired when the token is past its
// expiry and domain.ErrTokenInvalid for any other defect (bad signature,
// malformed, wrong algorithm); callers rely on the distinction.
type TokenService interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyAccessToken(token string) (string, error)
	VerifyRefreshToken(token string) (string, error)
}

// TokenPair carries a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
