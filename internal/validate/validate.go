// Package validate holds the pure submission validators. Nothing here
// touches storage or the network.
package validate

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

const (
	walletAddressLength = 42
	minImageSide        = 400
)

// WalletAddress reports whether the address looks like an EVM address:
// a "0x" prefix and 42 characters total. No checksum verification.
func WalletAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && len(address) == walletAddressLength
}

// Image reports whether the bytes decode as an image at least 400x400.
// Undecodable input is simply invalid, never an error.
func Image(data []byte) bool {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return cfg.Width >= minImageSide && cfg.Height >= minImageSide
}

// Audio accepts any payload. There is no audio check yet; this is a
// known placeholder, kept explicit rather than hidden in the caller.
func Audio(data []byte) bool {
	return true
}
