package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/yonaslemma/gursha-backend/pkg/config"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password does not match")

// Hasher derives and verifies argon2id password hashes using the PHC string
// encoding so parameters travel with the hash.
type Hasher struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// NewHasher constructs a Hasher from configuration.
func NewHasher(cfg config.PasswordConfig) (*Hasher, error) {
	if cfg.ArgonMemoryKB == 0 || cfg.ArgonTime == 0 || cfg.ArgonParallelism == 0 {
		return nil, fmt.Errorf("argon2 parameters must be positive")
	}
	if cfg.ArgonSaltLen == 0 || cfg.ArgonKeyLen == 0 {
		return nil, fmt.Errorf("argon2 salt and key lengths must be positive")
	}
	return &Hasher{
		memory:  uint32(cfg.ArgonMemoryKB),
		time:    uint32(cfg.ArgonTime),
		threads: uint8(cfg.ArgonParallelism),
		saltLen: uint32(cfg.ArgonSaltLen),
		keyLen:  uint32(cfg.ArgonKeyLen),
	}, nil
}

// Hash derives an argon2id hash for the plaintext password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.time,
		h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify compares the plaintext password against an encoded hash in constant time.
func (h *Hasher) Verify(password, encoded string) error {
	memory, timeCost, threads, salt, key, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func decodeHash(encoded string) (memory, timeCost uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed password hash version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed password hash parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("decoding salt: %w", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("decoding key: %w", err)
	}
	return memory, timeCost, threads, salt, key, nil
}
