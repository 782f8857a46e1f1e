package domain

// Purpose identifies what a signed token authorizes. The set is closed:
// tokens carrying any other subject claim are rejected outright.
type Purpose string

const (
	PurposeLogin          Purpose = "login"
	PurposeForgotPassword Purpose = "forgot_pwd"
	PurposeInvitation     Purpose = "invitation"
)

// Valid reports whether p is one of the recognized purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeLogin, PurposeForgotPassword, PurposeInvitation:
		return true
	}
	return false
}
