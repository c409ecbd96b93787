// Package aprs implements the APRS-IS side of the bridge: the line
// classifier for the addressed-message sub-format, the login and
// acknowledgment line builders and the feed client itself.
package aprs

import (
	"strings"

	"aprstoot/internal/constants"
)

type LineKind int

const (
	// LineNoMatch covers everything the bridge has no use for: positions,
	// weather, telemetry and messages addressed to other stations.
	LineNoMatch LineKind = iota
	// LineServerStatus is a server comment line, usually the periodic ping.
	LineServerStatus
	// LineMessage is an addressed message for the configured station.
	LineMessage
)

func (k LineKind) String() string {
	switch k {
	case LineServerStatus:
		return "server_status"
	case LineMessage:
		return "message"
	default:
		return "no_match"
	}
}

// Frame is one addressed message extracted from the feed. AckID is empty
// when the sending station did not request an acknowledgment.
type Frame struct {
	Sender string
	Body   string
	AckID  string
}

// AckEligible reports whether the frame carried a message ID and therefore
// requires an acknowledgment reply.
func (f Frame) AckEligible() bool {
	return f.AckID != ""
}

// Line is the tagged classification result for one feed line.
type Line struct {
	Kind   LineKind
	Status string
	Frame  Frame
}

// Parser classifies raw feed lines against one configured station identity.
// It is stateless apart from that identity and safe for reuse.
type Parser struct {
	station string
}

func NewParser(station string) *Parser {
	return &Parser{station: station}
}

// Parse classifies a single decoded feed line. Malformed lines and traffic
// for other stations yield LineNoMatch, never an error: the feed is noisy
// and the parser is deliberately permissive.
//
// The addressed-message shape is
//
//	SENDER>PATH::ADDRESSEE:body{id
//
// where ADDRESSEE is exactly 9 characters, left-justified and space padded,
// and the {id suffix is optional. The addressee comparison is
// case-insensitive.
func (p *Parser) Parse(raw string) Line {
	line := strings.TrimRight(raw, "\r\n")

	if strings.HasPrefix(line, "#") {
		return Line{Kind: LineServerStatus, Status: line}
	}

	sep := strings.Index(line, ">")
	if sep <= 0 {
		return Line{Kind: LineNoMatch}
	}
	sender := strings.TrimSpace(line[:sep])
	rest := line[sep+1:]

	addr := strings.Index(rest, "::")
	if addr < 0 {
		return Line{Kind: LineNoMatch}
	}
	rest = rest[addr+2:]

	// Fixed-width addressee field followed by the message separator.
	if len(rest) < constants.RecipientFieldWidth+1 {
		return Line{Kind: LineNoMatch}
	}
	addressee := strings.TrimSpace(rest[:constants.RecipientFieldWidth])
	if rest[constants.RecipientFieldWidth] != ':' {
		return Line{Kind: LineNoMatch}
	}
	if !strings.EqualFold(addressee, p.station) {
		return Line{Kind: LineNoMatch}
	}

	text := rest[constants.RecipientFieldWidth+1:]
	frame := Frame{Sender: sender}
	if brace := strings.Index(text, "{"); brace >= 0 {
		frame.Body = text[:brace]
		frame.AckID = text[brace+1:]
	} else {
		frame.Body = text
	}

	return Line{Kind: LineMessage, Frame: frame}
}
