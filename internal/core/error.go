package core

import "errors"

// errors shared across packages
var (
	ErrNilResourceStore = errors.New("resource store is nil")
	ErrNilPolicy        = errors.New("policy table is nil")
	ErrNilEngine        = errors.New("scoping engine is nil")
	ErrNilStore         = errors.New("store is nil")
	ErrNilLogger        = errors.New("logger is nil")
	ErrNilDatabase      = errors.New("database is nil")
	ErrNoPrincipal      = errors.New("no authenticated principal")
	ErrInvalidID        = errors.New("invalid object id")
)
