package aprs

import (
	"fmt"

	"aprstoot/internal/constants"
)

// BuildLogin returns the APRS-IS login line. The server never confirms it
// synchronously; a bad passcode surfaces later as missing traffic.
func BuildLogin(station, passcode, filter string) string {
	return fmt.Sprintf("user %s pass %s vers %s %s filter %s\r\n",
		station, passcode, constants.AppName, constants.AppVersion, filter)
}

// BuildAck returns the acknowledgment line for a frame that carried a
// message ID. The addressee field is left-justified and space padded to the
// protocol's fixed width.
func BuildAck(station string, frame Frame) string {
	recipient := fmt.Sprintf("%-*s", constants.RecipientFieldWidth, frame.Sender)
	return fmt.Sprintf("%s>APRS,TCPIP*::%s:ack%s\r\n", station, recipient, frame.AckID)
}
