package ports

// TokenClaims is the subset of verified token claims the service reads.
type TokenClaims struct {
	SubjectID string
	Role      string
}

type TokenVerifier interface {
	Verify(raw string) (TokenClaims, error)
}
