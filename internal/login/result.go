// Package login runs one authentication: it looks up the user's enrolled
// credential, reads a tag from the configured source and compares the two.
package login

import "fmt"

// Result is the outcome of an authentication. Values match the Linux-PAM
// return codes so they can be used directly as a pam_exec exit status.
type Result int

const (
	ResultSuccess     Result = 0
	ResultAuthErr     Result = 7
	ResultUserUnknown Result = 10
	ResultConvErr     Result = 19
	ResultIgnore      Result = 25
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultAuthErr:
		return "auth_err"
	case ResultUserUnknown:
		return "user_unknown"
	case ResultConvErr:
		return "conv_err"
	case ResultIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

func (r Result) ExitCode() int {
	return int(r)
}
