package userstore

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Password hashes in the user store are PHC-formatted argon2id strings:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt-b64>$<hash-b64>
//
// Hashing happens in the user-management system that writes the rows;
// this package only verifies.

var errBadHash = errors.New("malformed password hash")

// verifyPassword recomputes the argon2id digest with the parameters
// embedded in the stored hash and compares in constant time.
func verifyPassword(password, encodedHash string) (bool, error) {
	salt, hash, params, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		params.time,
		params.memory,
		params.parallelism,
		uint32(len(hash)),
	)
	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parsePHC(encoded string) ([]byte, []byte, phcParams, error) {
	var params phcParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, errBadHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, nil, params, errBadHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.memory, &params.time, &params.parallelism); err != nil {
		return nil, nil, params, errBadHash
	}
	if params.memory == 0 || params.time == 0 || params.parallelism == 0 {
		return nil, nil, params, errBadHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[4], "="))
	if err != nil || len(salt) == 0 {
		return nil, nil, params, errBadHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[5], "="))
	if err != nil || len(hash) == 0 {
		return nil, nil, params, errBadHash
	}

	return salt, hash, params, nil
}
