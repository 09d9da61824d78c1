package keeper

import "errors"

var (
	// ErrMalformedKeyFile indicates the key file is a directory or failed
	// envelope validation. A corrupted key file is not recoverable; the only
	// way forward is Reset plus a fresh instance.
	ErrMalformedKeyFile = errors.New("malformed key file")
	// ErrKeyFileExists indicates key-file creation was attempted at a path
	// where a file already exists. The existing file is left untouched.
	ErrKeyFileExists = errors.New("key file already exists")
	// ErrNoExecutablePath indicates no key-file path was supplied and the
	// running executable's path could not be determined.
	ErrNoExecutablePath = errors.New("cannot determine executable path")
)
