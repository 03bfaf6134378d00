package session

// Outcome is the result of a logout request.
type Outcome int

const (
	// OutcomeFailed means the persistence collaborator could not record the logout.
	OutcomeFailed Outcome = iota
	// OutcomeRevoked means the credential (or every credential of the subject) is now revoked.
	OutcomeRevoked
	// OutcomeAlreadyRevoked means the credential was already on the deny-list.
	OutcomeAlreadyRevoked
	// OutcomeAlreadyInvalid means the credential was not valid to begin with.
	OutcomeAlreadyInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRevoked:
		return "revoked"
	case OutcomeAlreadyRevoked:
		return "already_revoked"
	case OutcomeAlreadyInvalid:
		return "already_invalid"
	default:
		return "failed"
	}
}

// Success reports whether the caller's sessions are logged out after the request.
// AlreadyRevoked counts as success: the credential cannot be used either way.
func (o Outcome) Success() bool {
	return o == OutcomeRevoked || o == OutcomeAlreadyRevoked
}

// Message is the user facing text for a single-credential logout.
func (o Outcome) Message() string {
	switch o {
	case OutcomeRevoked:
		return "Logged out successfully"
	case OutcomeAlreadyRevoked:
		return "Token already invalidated"
	case OutcomeAlreadyInvalid:
		return "Invalid or expired token"
	default:
		return "Failed to logout"
	}
}

// AllDevicesMessage is the user facing text for a logout from every device.
func (o Outcome) AllDevicesMessage() string {
	if o == OutcomeRevoked {
		return "Logged out from all devices successfully"
	}
	return "Failed to logout from all devices"
}
