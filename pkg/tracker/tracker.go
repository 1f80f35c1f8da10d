package tracker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/core"
	"github.com/taskward/taskward/pkg/access"
	"github.com/taskward/taskward/pkg/resource"
)

// Manager drives the tracker's resource flows: every read and write is
// authorized through the scoping engine before the store is touched.
// It is the in-process counterpart of the original application's view
// bodies, with the authorization logic lifted out of them.
type Manager struct {
	engine *access.Engine
	store  resource.Store
	logger *zap.Logger
}

// NewManager initializes a tracker manager
func NewManager(engine *access.Engine, store resource.Store) (*Manager, error) {
	if engine == nil {
		return nil, core.ErrNilEngine
	}

	if store == nil {
		return nil, core.ErrNilResourceStore
	}

	return &Manager{
		engine: engine,
		store:  store,
	}, nil
}

// SetLogger assigns a logger for this manager
func (m *Manager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[tracker]")
	}

	m.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (m *Manager) Logger() *zap.Logger {
	if m.logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(fmt.Errorf("failed to initialize tracker manager logger: %s", err))
		}

		m.logger = l
	}

	return m.logger
}

// Engine returns the underlying scoping engine
func (m *Manager) Engine() *access.Engine {
	return m.engine
}

// denial maps a denied decision onto the caller-facing error
func denial(d access.Decision, kind resource.Kind) error {
	if d.Effect == access.EForbidden {
		return access.ErrForbidden
	}

	return resource.NotFoundError(kind)
}
