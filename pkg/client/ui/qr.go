package ui

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// RenderQR renders content as a QR code made of half-block characters, two
// modules per terminal row
func RenderQR(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return strings.TrimRight(code.ToSmallString(false), "\n"), nil
}
