package server

// ANSI escapes for DEV request logs.
const (
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiReset   = "\033[0m"
)

var methodColors = map[string]string{
	"GET":     ansiGreen,
	"POST":    ansiBlue,
	"PUT":     ansiCyan,
	"DELETE":  ansiYellow,
	"PATCH":   ansiMagenta,
	"OPTIONS": ansiGray,
}

// statusColour picks the colour of a response code: 5xx red, 4xx yellow, the rest green.
func statusColour(status int) string {
	switch {
	case status >= 500:
		return ansiRed
	case status >= 400:
		return ansiYellow
	default:
		return ansiGreen
	}
}
