package domain

// PrincipalType differentiates user vs ship tokens.
type PrincipalType string

const (
	PrincipalTypeUser PrincipalType = "user"
	PrincipalTypeShip PrincipalType = "ship"
)

// Valid reports whether t is one of the known principal types.
func (t PrincipalType) Valid() bool {
	return t == PrincipalTypeUser || t == PrincipalTypeShip
}
