package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Variant = "argon2id"
	argon2Version = "v=19"
	argon2Prefix  = argon2Variant + "$"
)

var errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")

// Argon2Config defines tunable parameters for Argon2id password hashing.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the library default Argon2id configuration.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HashPassword generates an Argon2id hash for the provided password. The
// returned value embeds the parameters, salt, and hash in a portable format:
// argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func HashPassword(password string) (string, error) {
	cfg := DefaultArgon2Config()

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	encoded := strings.Join([]string{
		argon2Variant,
		argon2Version,
		fmt.Sprintf("m=%d,t=%d,p=%d", cfg.Memory, cfg.Iterations, cfg.Parallelism),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	}, "$")

	return encoded, nil
}

// VerifyPassword compares the supplied password against a stored credential.
// Hashed credentials (argon2id prefix) are verified cryptographically;
// anything else is a legacy plaintext record compared in constant time.
func VerifyPassword(supplied, stored string) bool {
	if supplied == "" || stored == "" {
		return false
	}

	if strings.HasPrefix(stored, argon2Prefix) {
		ok, err := verifyArgon2(supplied, stored)
		return err == nil && ok
	}

	return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
}

// IsHashed reports whether the stored credential is already argon2 encoded.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, argon2Prefix)
}

func verifyArgon2(password, encoded string) (bool, error) {
	cfg, salt, expected, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func decodeArgon2Hash(encoded string) (Argon2Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != argon2Variant || parts[1] != argon2Version {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}

	var cfg Argon2Config
	for _, field := range strings.Split(parts[2], ",") {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			return Argon2Config{}, nil, nil, errInvalidHashFormat
		}
		value, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return Argon2Config{}, nil, nil, fmt.Errorf("argon2: parse parameter %s: %w", kv[0], err)
		}
		switch kv[0] {
		case "m":
			cfg.Memory = uint32(value)
		case "t":
			cfg.Iterations = uint32(value)
		case "p":
			cfg.Parallelism = uint8(value)
		default:
			return Argon2Config{}, nil, nil, errInvalidHashFormat
		}
	}
	if cfg.Memory == 0 || cfg.Iterations == 0 || cfg.Parallelism == 0 {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode hash: %w", err)
	}

	return cfg, salt, hash, nil
}
