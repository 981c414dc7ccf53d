// Package interfaces defines core abstractions for the medhub API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/medhub/medhub-api/entities"
)

// CatalogQualityReport summarises data quality issues of a reference snapshot
type CatalogQualityReport struct {
	TotalRows              int
	DuplicateNames         []string
	RowsWithoutClass       int
	RowsWithoutClassNames  []string // first 10 only
	RowsWithoutGenericName int
}

// ReferenceLookup finds the first reference row whose name fuzzy-matches the
// given lower-case name. It returns (nil, nil) when no row matches; errors are
// reserved for store failures.
type ReferenceLookup interface {
	FindByName(ctx context.Context, name string) (*entities.ReferenceMedicine, error)
}

// ReferenceSource is the external reference store the catalog is loaded from
type ReferenceSource interface {
	ReferenceLookup

	// All returns every reference row ordered by name
	All(ctx context.Context) ([]entities.ReferenceMedicine, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}

// CatalogStore holds the in-memory snapshot of the reference store.
// It provides thread-safe access with atomic operations for zero-downtime updates.
type CatalogStore interface {
	// Data retrieval methods
	GetMedicines() []entities.ReferenceMedicine
	GetReport() *CatalogQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(medicines []entities.ReferenceMedicine, report *CatalogQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// InteractionChecker resolves the pairwise interactions of a medicine list
type InteractionChecker interface {
	Check(ctx context.Context, medicines []string) ([]entities.InteractionResult, error)
}

// Assistant wraps the generative AI gateway. Results are validated before
// they are returned.
type Assistant interface {
	IdentifyMedicine(ctx context.Context, image entities.Image) (*entities.MedicineIdentification, error)
	ExplainReport(ctx context.Context, image entities.Image) (*entities.ReportExplanation, error)
	Ask(ctx context.Context, question string, history []entities.ChatTurn) (*entities.Answer, error)
}

// CabinetRepository persists the medicines of a user's cabinet.
// Every read and write is scoped to the owning user.
type CabinetRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]entities.Medicine, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entities.Medicine, error)
	Create(ctx context.Context, m *entities.Medicine) error
	CreateMany(ctx context.Context, medicines []entities.Medicine) (int, error)
	Update(ctx context.Context, m *entities.Medicine) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog refreshes.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()

	// NextUpdate returns the next scheduled refresh, zero if none is scheduled
	NextUpdate() time.Time
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	CheckInteractions(w http.ResponseWriter, r *http.Request)
	Preflight(w http.ResponseWriter, r *http.Request)

	IdentifyMedicine(w http.ResponseWriter, r *http.Request)
	ExplainReport(w http.ResponseWriter, r *http.Request)
	AskQuestion(w http.ResponseWriter, r *http.Request)

	ListCabinet(w http.ResponseWriter, r *http.Request)
	GetCabinetMedicine(w http.ResponseWriter, r *http.Request)
	CreateCabinetMedicine(w http.ResponseWriter, r *http.Request)
	UpdateCabinetMedicine(w http.ResponseWriter, r *http.Request)
	DeleteCabinetMedicine(w http.ResponseWriter, r *http.Request)
	ExportCabinet(w http.ResponseWriter, r *http.Request)
	ImportCabinet(w http.ResponseWriter, r *http.Request)
	CabinetStats(w http.ResponseWriter, r *http.Request)
	CabinetReminders(w http.ResponseWriter, r *http.Request)
	CabinetInteractions(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog refresh
	CalculateNextUpdate() time.Time
}

// InputValidator defines the contract for request validation.
type InputValidator interface {
	// ValidateMedicineList checks an interaction request list
	ValidateMedicineList(medicines []string) error

	// ValidateQuestion checks a free-text assistant question
	ValidateQuestion(question string) error

	// ValidateUserID parses the user id forwarded by the auth gateway
	ValidateUserID(input string) (uuid.UUID, error)

	// ValidateMedicine checks a cabinet entry before it is stored
	ValidateMedicine(m *entities.Medicine) error

	// ReportCatalogQuality generates a data quality report for a reference snapshot
	ReportCatalogQuality(medicines []entities.ReferenceMedicine) *CatalogQualityReport
}
