package server

import (
	"fmt"
	"strconv"
)

const (
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiReset  = "\033[0m"
)

// colourMethod pads the method to a fixed width so paths line up in the
// route table.
func colourMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	switch method {
	case "GET":
		return ansiGreen + padded + ansiReset
	case "POST":
		return ansiBlue + padded + ansiReset
	case "DELETE":
		return ansiYellow + padded + ansiReset
	case "PUT", "PATCH":
		return ansiCyan + padded + ansiReset
	}
	return ansiGray + padded + ansiReset
}

func colourStatus(status int) string {
	code := strconv.Itoa(status)
	switch {
	case status >= 500:
		return ansiRed + code + ansiReset
	case status >= 400:
		return ansiYellow + code + ansiReset
	case status >= 300:
		return ansiCyan + code + ansiReset
	}
	return ansiGreen + code + ansiReset
}
