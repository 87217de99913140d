package local

import "errors"

var (
	errNoVersions      = errors.New("versioned enc key requires at least one version")
	errShortCiphertext = errors.New("ciphertext too short to carry a version byte")
	errUnknownVersion  = errors.New("ciphertext references an unknown key version")
)
