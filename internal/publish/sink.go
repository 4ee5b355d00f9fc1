package publish

import (
	"context"
	"fmt"
	"regexp"

	"pagebuilder/internal/domain"
)

// DefaultTablePrefix names the tables or collections when a target sets none.
const DefaultTablePrefix = "pagebuilder"

var tablePrefixRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Document is one page as it leaves the builder: metadata, the flat block
// list and the preview HTML.
type Document struct {
	Page   domain.Page    `json:"page"`
	Blocks []domain.Block `json:"blocks"`
	HTML   string         `json:"html"`
}

// Result summarizes what a sink wrote.
type Result struct {
	Upserted int `json:"upserted"`
	Deleted  int `json:"deleted"`
}

// Sink pushes published pages to an external store.
type Sink interface {
	// Test verifies connectivity.
	Test(ctx context.Context) error

	// Publish replaces everything the sink holds for doc.Page.ID with doc.
	Publish(ctx context.Context, doc *Document) (*Result, error)

	// Close releases the underlying connection.
	Close() error
}

// NewSink creates a Sink for the given target.
// The password must be provided separately (from SecretStore).
func NewSink(target *domain.PublishTarget, password string) (Sink, error) {
	prefix, err := tablePrefix(target)
	if err != nil {
		return nil, err
	}
	switch target.Driver {
	case domain.PublishDriverSQLite:
		return newSQLiteSink(target, prefix)
	case domain.PublishDriverMySQL:
		return newSQLSink("mysql", buildMySQLDSN(target, password), prefix)
	case domain.PublishDriverPostgres:
		return newSQLSink("postgres", buildPostgresDSN(target, password), prefix)
	case domain.PublishDriverMongoDB:
		return newMongoSink(target, password, prefix)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", target.Driver)
	}
}

// ValidateTablePrefix reports whether prefix can be spliced into DDL.
func ValidateTablePrefix(prefix string) error {
	if !tablePrefixRe.MatchString(prefix) {
		return fmt.Errorf("invalid table prefix %q", prefix)
	}
	return nil
}

func tablePrefix(target *domain.PublishTarget) (string, error) {
	prefix := target.Table
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if err := ValidateTablePrefix(prefix); err != nil {
		return "", err
	}
	return prefix, nil
}
