package environment

import (
	"portfolio-site/internal/database"
	"portfolio-site/internal/logging"
	"time"
)

// Env bundles the shared infrastructure handed to every controller and service:
// the content repository, the logger and the clock used for timestamps and upload folders.
type Env struct {
	database.Repository
	logging.Logger
	Now func() time.Time
}

// Environment constructs a new Env from the given repository and logger.
// Nil arguments are replaced by their no-op implementations; the clock defaults to time.Now.
func Environment(repository database.Repository, logger logging.Logger) *Env {
	if repository == nil {
		repository = &database.NullRepository{}
	}

	if logger == nil {
		logger = &logging.NullLogger{}
	}

	return &Env{Repository: repository, Logger: logger, Now: time.Now}
}

// Null returns an Env with no-op repository and logger.
func Null() *Env {
	return Environment(nil, nil)
}

// WithClock returns a copy of env whose Now returns the given fixed time.
func (env *Env) WithClock(t time.Time) *Env {
	c := *env
	c.Now = func() time.Time { return t }
	return &c
}
