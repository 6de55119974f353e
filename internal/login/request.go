package login

import "strings"

// Request names who is logging in and through which service.
type Request struct {
	User    string
	Service string
}

// RequestFromEnv builds a Request from the variables pam_exec exports.
// PAM_RUSER wins over PAM_USER when both are set.
func RequestFromEnv(getenv func(string) string) Request {
	user := strings.TrimSpace(getenv("PAM_RUSER"))
	if user == "" {
		user = strings.TrimSpace(getenv("PAM_USER"))
	}
	return Request{
		User:    user,
		Service: strings.TrimSpace(getenv("PAM_SERVICE")),
	}
}
