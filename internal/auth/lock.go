// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package auth hashes private-room passwords. Hashes travel in the room
// payload as PHC-format argon2id strings; an empty hash means unlocked.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	lockTime    = 1         // iterations
	lockMemory  = 64 * 1024 // 64 MB
	lockThreads = 4         // parallelism
	lockSaltLen = 16        // salt length in bytes
	lockKeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when locking a room with an empty password.
// Unlocked rooms carry an empty hash, never a hash of the empty string.
var ErrEmptyPassword = oops.Code("LOCK_EMPTY_PASSWORD").Errorf("room password cannot be empty")

// LockHasher hashes and verifies room passwords.
type LockHasher interface {
	// Hash produces an argon2id hash of the password.
	Hash(password string) (string, error)

	// Verify checks the password against the hash. Returns (true, nil) on
	// match, (false, nil) on mismatch, or an error for a malformed hash.
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher implements LockHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates an Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, lockSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("LOCK_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, lockTime, lockMemory, lockThreads, lockKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		lockMemory,
		lockTime,
		lockThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks the password against an encoded hash. Parameters come from
// the hash itself so old hashes stay verifiable after a parameter bump.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, oops.Code("LOCK_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, oops.Code("LOCK_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("LOCK_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("LOCK_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("LOCK_INVALID_HASH").Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("LOCK_INVALID_HASH").Wrap(err)
	}

	// threads must fit in uint8; reject rather than silently truncate.
	if threads > 255 {
		return false, oops.Code("LOCK_INVALID_HASH").Errorf("threads value %d exceeds uint8 max", threads)
	}

	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("LOCK_INVALID_HASH").Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return true, nil
	}
	return false, nil
}
