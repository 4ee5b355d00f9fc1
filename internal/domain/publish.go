package domain

import "time"

// PublishDriver names the engine behind a publish target.
type PublishDriver string

const (
	PublishDriverMySQL    PublishDriver = "mysql"
	PublishDriverPostgres PublishDriver = "postgres"
	PublishDriverMongoDB  PublishDriver = "mongodb"
	PublishDriverSQLite   PublishDriver = "sqlite"
)

// PublishTarget is an external store that receives published pages.
// The password lives in the SecretStore under the target id.
type PublishTarget struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Driver    PublishDriver `json:"driver"`
	Host      string        `json:"host"`     // hostname or file path (sqlite)
	Port      int           `json:"port"`     // 0 for sqlite
	Database  string        `json:"database"` // db name or empty for sqlite
	Username  string        `json:"username"`
	SSLMode   string        `json:"sslMode"`
	Table     string        `json:"table"` // table or collection prefix
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type PublishTargetStore interface {
	CreateTarget(t *PublishTarget) error
	GetTarget(id string) (*PublishTarget, error)
	GetTargetByName(name string) (*PublishTarget, error)
	ListTargets() ([]PublishTarget, error)
	UpdateTarget(t *PublishTarget) error
	DeleteTarget(id string) error
}

// PublishRecord is one publish attempt of a page to a target.
type PublishRecord struct {
	ID          string    `json:"id"`
	PageID      string    `json:"pageId"`
	TargetID    string    `json:"targetId"`
	Upserted    int       `json:"upserted"`
	Deleted     int       `json:"deleted"`
	DurationMs  int       `json:"durationMs"`
	Error       string    `json:"error"`
	PublishedAt time.Time `json:"publishedAt"`
}

type PublishLogStore interface {
	AddRecord(r *PublishRecord) error
	ListRecords(pageID string, limit int) ([]PublishRecord, error)
}
