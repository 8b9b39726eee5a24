package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = uint32(3)
	argonMemory  = uint32(64 * 1024)
	argonThreads = uint8(2)
	argonKeyLen  = uint32(32)
)

// GenerateHash returns an argon2id PHC string for payload with a random salt.
func GenerateHash(payload string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(payload), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// VerifyHash recomputes the hash of plain with the stored parameters and
// compares in constant time.
func VerifyHash(hashed, plain string) (bool, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("invalid hash format")
	}

	memory, iterations, threads, err := parseArgonParams(parts[3])
	if err != nil {
		return false, err
	}
	// argon2.IDKey panics on zero time or threads
	if iterations == 0 || threads == 0 {
		return false, fmt.Errorf("invalid argon2 params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}
	// an empty key would compare equal to any password
	if len(expectedHash) == 0 {
		return false, fmt.Errorf("empty hash")
	}

	computeHash := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(expectedHash)))

	return subtle.ConstantTimeCompare(expectedHash, computeHash) == 1, nil
}

// parseArgonParams reads "m=65536,t=3,p=2".
func parseArgonParams(paramPart string) (memory, iterations uint32, threads uint8, err error) {
	paramItems := strings.Split(paramPart, ",")
	if len(paramItems) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid param format")
	}

	for _, item := range paramItems {
		key, val, ok := strings.Cut(item, "=")
		if !ok {
			return 0, 0, 0, fmt.Errorf("invalid key=value format in params")
		}
		switch key {
		case "m":
			mem, perr := strconv.ParseUint(val, 10, 32)
			if perr != nil {
				return 0, 0, 0, perr
			}
			memory = uint32(mem)
		case "t":
			t, perr := strconv.ParseUint(val, 10, 32)
			if perr != nil {
				return 0, 0, 0, perr
			}
			iterations = uint32(t)
		case "p":
			p, perr := strconv.ParseUint(val, 10, 8)
			if perr != nil {
				return 0, 0, 0, perr
			}
			threads = uint8(p)
		default:
			return 0, 0, 0, fmt.Errorf("unknown parameter: %s", key)
		}
	}
	return memory, iterations, threads, nil
}
