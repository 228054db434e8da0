package collateral

import "errors"

var (
	ErrNotArbiter = errors.New("caller is not the arbiter")
	ErrNotOwner   = errors.New("caller does not own or operate the spigot or line")

	// ErrInvalidSetting is raised locally, before any transaction is
	// constructed, for spigot settings the contract is guaranteed to
	// revert on.
	ErrInvalidSetting = errors.New("invalid spigot setting")
)
