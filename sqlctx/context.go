package sqlctx

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nickyhof/FrameBridge/frame"
)

// Context is a SQL session over frames registered under table names. Each
// context owns a private in-memory database.
type Context struct {
	store  *store
	tables []string
}

func NewContext(ctx context.Context, logger *slog.Logger) (*Context, error) {
	s, err := openStore(ctx, "", logger)
	if err != nil {
		return nil, err
	}
	return &Context{store: s}, nil
}

// Register materializes df as table name, replacing an earlier table of the
// same name.
func (c *Context) Register(ctx context.Context, name string, df *frame.DataFrame) error {
	if name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.conn == nil {
		return fmt.Errorf("sql context is closed")
	}
	if err := c.store.load(ctx, name, df); err != nil {
		return fmt.Errorf("failed to register %q: %w", name, err)
	}
	if !slices.Contains(c.tables, name) {
		c.tables = append(c.tables, name)
	}
	return nil
}

// Execute runs query and returns its result as a frame.
func (c *Context) Execute(ctx context.Context, env *frame.Env, query string) (*frame.DataFrame, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.conn == nil {
		return nil, fmt.Errorf("sql context is closed")
	}
	return c.store.query(ctx, env, query)
}

// Tables lists the registered table names in registration order.
func (c *Context) Tables() []string {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return slices.Clone(c.tables)
}

func (c *Context) Close() error {
	return c.store.close()
}

// Release closes the context, logging instead of returning a failure.
func (c *Context) Release() {
	if err := c.Close(); err != nil {
		c.store.logger.Warn("failed to close sql context", "error", err)
	}
}
