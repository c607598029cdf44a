package session

// State is the coordinator's position in the login/logout lifecycle.
type State int

const (
	CheckingAuth State = iota
	AwaitingToken
	AwaitingCredentials
	Authenticating
	Authenticated
	LoggingOut
)

var stateNames = map[State]string{
	CheckingAuth:        "checking_auth",
	AwaitingToken:       "awaiting_token",
	AwaitingCredentials: "awaiting_credentials",
	Authenticating:      "authenticating",
	Authenticated:       "authenticated",
	LoggingOut:          "logging_out",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
