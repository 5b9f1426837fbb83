package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// SHA256Hex returns the hex-encoded sha256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileSHA256 returns the hex-encoded sha256 of the file at path.
func FileSHA256(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return SHA256Hex(data), nil
}
