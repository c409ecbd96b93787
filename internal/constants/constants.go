package constants

import "time"

const (
	AppName    = "APRSTOOT"
	AppVersion = "1.0"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	// KeepaliveThreshold is the maximum raw chunk length still treated as
	// APRS-IS keepalive noise and skipped without parsing.
	KeepaliveThreshold = 2
)

const (
	// RecipientFieldWidth is the fixed width of the addressee field in an
	// APRS addressed message, left-justified and space padded.
	RecipientFieldWidth = 9
)

const (
	MaxCallsignLen = 16
	MaxMessageLen  = 256
	MaxMsgIDLen    = 32
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
