package gateway

// Messages are the replies the gateway sends on its own behalf.
type Messages struct {
	RateLimited string
	GroupOnly   string
	AdminOnly   string
	// Usage is a format string receiving the rendered usage line.
	Usage  string
	Failed string
}

func DefaultMessages() Messages {
	return Messages{
		RateLimited: "Too many requests. Please wait a moment before trying again.",
		GroupOnly:   "This command can only be used in groups.",
		AdminOnly:   "This command is for group admins only.",
		Usage:       "Usage: %s",
		Failed:      "Sorry, something went wrong while processing your command.",
	}
}
