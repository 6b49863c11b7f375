package auth

type (
	MissingCredentials struct{}
)

func (MissingCredentials) Error() string {
	return "email and password are required"
}
