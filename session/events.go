package session

import "github.com/jrsteele09/go-session-client/authmodel"

// EventKind identifies an external signal sent to the coordinator.
type EventKind int

const (
	EventLogin      EventKind = iota + 1 // user submitted login credentials
	EventCreateUser                      // user submitted a sign up form
	EventLogout                          // explicit logout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventCreateUser:
		return "create_user"
	case EventLogout:
		return "logout"
	}
	return "unknown"
}

// Event carries an optional credential payload for login and sign up submissions.
type Event struct {
	Kind        EventKind
	Credentials authmodel.Credentials
}

func LoginEvent(credentials authmodel.Credentials) Event {
	return Event{Kind: EventLogin, Credentials: credentials}
}

func CreateUserEvent(credentials authmodel.Credentials) Event {
	return Event{Kind: EventCreateUser, Credentials: credentials}
}

func LogoutEvent() Event {
	return Event{Kind: EventLogout}
}
