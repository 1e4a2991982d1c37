// Package domain defines the persistence models for complaints, the
// category/status registries, users, and the complaint status history.
// These types are mapped with GORM and form the core data layer of the
// civic complaint backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Priority levels accepted on a complaint.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// ValidPriority reports whether p is one of the accepted priority levels.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Roles carried by accounts in the user directory.
const (
	RoleCitizen    = "citizen"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// IsAdminRole reports whether role grants administrative access.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// Category is a classification bucket for complaints with display metadata
// and a maintained running count.
//
// ComplaintCount is a derived aggregate: it must equal the number of
// non-deleted complaints referencing the category, and is maintained
// incrementally inside the complaint create/delete transactions.
type Category struct {
	ID             string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Name           string    `json:"name"           gorm:"type:varchar(50);not null;uniqueIndex"`
	Description    string    `json:"description"    gorm:"type:varchar(200);not null"`
	Icon           string    `json:"icon"           gorm:"type:varchar(64);not null;default:'fas fa-exclamation-circle'"`
	Color          string    `json:"color"          gorm:"type:varchar(7);not null;default:'#3B82F6'"`
	IsActive       bool      `json:"isActive"       gorm:"not null;index"`
	ComplaintCount int64     `json:"complaintCount" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Status is a named workflow stage. Order defines the advisory progression
// of the workflow; IsFinal marks terminal stages after which no further
// admin action is expected.
type Status struct {
	ID                  string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	Name                string    `json:"name"                gorm:"type:varchar(30);not null;uniqueIndex"`
	Description         string    `json:"description"         gorm:"type:varchar(100);not null"`
	Order               int       `json:"order"               gorm:"column:workflow_order;not null;uniqueIndex"`
	Color               string    `json:"color"               gorm:"type:varchar(7);not null;default:'#6B7280'"`
	Icon                string    `json:"icon"                gorm:"type:varchar(64);not null;default:'fas fa-clock'"`
	IsActive            bool      `json:"isActive"            gorm:"not null"`
	IsFinal             bool      `json:"isFinal"             gorm:"not null;default:false;index"`
	RequiresAdminAction bool      `json:"requiresAdminAction" gorm:"not null;default:false"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Status.
func (Status) TableName() string { return "statuses" }

// User is the directory record the lifecycle core reads identity/role from
// and writes aggregate counters to. Identity issuance itself lives in an
// external auth service; this table only mirrors what the core needs.
type User struct {
	ID                  string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	Name                string    `json:"name"                gorm:"type:varchar(100);not null"`
	Email               string    `json:"email"               gorm:"type:varchar(255);not null;uniqueIndex"`
	Role                string    `json:"role"                gorm:"type:varchar(16);not null;default:'citizen';check:role IN ('citizen','admin','super_admin')"`
	ComplaintsSubmitted int64     `json:"complaintsSubmitted" gorm:"not null;default:0"`
	ComplaintsResolved  int64     `json:"complaintsResolved"  gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Location is the embedded address block on a complaint. All fields are
// required together as one value; Pincode is a 6-digit string.
type Location struct {
	Lat     float64 `json:"lat"     gorm:"column:location_lat;not null"`
	Lng     float64 `json:"lng"     gorm:"column:location_lng;not null"`
	Address string  `json:"address" gorm:"column:location_address;type:varchar(200);not null"`
	City    string  `json:"city"    gorm:"column:location_city;type:varchar(50);not null;index"`
	State   string  `json:"state"   gorm:"column:location_state;type:varchar(50);not null;index"`
	Pincode string  `json:"pincode" gorm:"column:location_pincode;type:char(6);not null"`
}

// ComplaintPhoto is one externally hosted photo attached to a complaint.
// URL points at the image host; PublicID is the host's opaque storage id.
type ComplaintPhoto struct {
	ID          string `json:"id"                gorm:"type:char(36);primaryKey"`
	ComplaintID string `json:"-"                 gorm:"type:char(36);not null;index:idx_complaint_photos,priority:1"`
	URL         string `json:"url"               gorm:"type:text;not null"`
	PublicID    string `json:"publicId"          gorm:"type:varchar(255);not null"`
	Caption     string `json:"caption,omitempty" gorm:"type:varchar(100)"`
	Position    int    `json:"-"                 gorm:"not null;default:0;index:idx_complaint_photos,priority:2"`

	Complaint *Complaint `json:"-" gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ComplaintPhoto.
func (ComplaintPhoto) TableName() string { return "complaint_photos" }

// StatusChange is one entry of a complaint's append-only status history.
// Entries are never updated, reordered, or deleted; the newest entry always
// matches the complaint's live status.
type StatusChange struct {
	ID          string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ComplaintID string    `json:"-"               gorm:"type:char(36);not null;index:idx_status_history,priority:1"`
	StatusID    string    `json:"statusId"        gorm:"type:char(36);not null"`
	ChangedByID string    `json:"changedById"     gorm:"type:char(36);not null"`
	ChangedAt   time.Time `json:"changedAt"       gorm:"not null;index:idx_status_history,priority:2"`
	Notes       string    `json:"notes,omitempty" gorm:"type:varchar(200)"`

	Status    *Status `json:"status,omitempty"    gorm:"foreignKey:StatusID;references:ID"`
	ChangedBy *User   `json:"changedBy,omitempty" gorm:"foreignKey:ChangedByID;references:ID"`

	Complaint *Complaint `json:"-" gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for StatusChange.
func (StatusChange) TableName() string { return "status_history" }

// Complaint is the central aggregate: a reported civic issue tracked
// through the resolution workflow.
//
// Invariants maintained by the service layer:
//   - ComplaintNumber is assigned once at creation and never changes.
//   - Every change of StatusID appends exactly one StatusChange in the
//     same transaction.
//   - ActualResolutionDate is stamped on the first transition into the
//     terminal "Resolved" stage and never overwritten or cleared.
//   - ViewCount, Upvotes, and Downvotes only ever increase.
type Complaint struct {
	ID              string `json:"id"              gorm:"type:char(36);primaryKey"`
	ComplaintNumber string `json:"complaintNumber" gorm:"type:char(14);not null;uniqueIndex"`
	Title           string `json:"title"           gorm:"type:varchar(100);not null"`
	Description     string `json:"description"     gorm:"type:varchar(1000);not null"`
	CategoryID      string `json:"categoryId"      gorm:"type:char(36);not null;index"`
	StatusID        string `json:"statusId"        gorm:"type:char(36);not null;index"`
	Priority        string `json:"priority"        gorm:"type:varchar(8);not null;default:'Medium';index;check:priority IN ('Low','Medium','High','Critical')"`

	Location Location `json:"location" gorm:"embedded"`

	UserID  string  `json:"userId"            gorm:"type:char(36);not null;index"`
	AdminID *string `json:"adminId,omitempty" gorm:"type:char(36)"`

	ResolutionNotes         string     `json:"resolutionNotes,omitempty" gorm:"type:varchar(500)"`
	EstimatedResolutionDate *time.Time `json:"estimatedResolutionDate,omitempty"`
	ActualResolutionDate    *time.Time `json:"actualResolutionDate,omitempty"`

	// No SQL defaults on the visibility flags: with a default tag GORM
	// drops a zero-value false from the INSERT and the column default
	// silently wins, turning a private complaint public. The service layer
	// owns the public-by-default rule instead.
	IsPublic    bool `json:"isPublic"    gorm:"not null;index"`
	IsAnonymous bool `json:"isAnonymous" gorm:"not null"`

	Tags datatypes.JSONSlice[string] `json:"tags" gorm:"type:json"`

	ViewCount int64 `json:"viewCount" gorm:"not null;default:0"`
	Upvotes   int64 `json:"upvotes"   gorm:"not null;default:0"`
	Downvotes int64 `json:"downvotes" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
	Status   *Status   `json:"status,omitempty"   gorm:"foreignKey:StatusID;references:ID"`
	User     *User     `json:"user,omitempty"     gorm:"foreignKey:UserID;references:ID"`
	Admin    *User     `json:"admin,omitempty"    gorm:"foreignKey:AdminID;references:ID"`

	Photos        []ComplaintPhoto `json:"photos"                  gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	StatusHistory []StatusChange   `json:"statusHistory,omitempty" gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Complaint.
func (Complaint) TableName() string { return "complaints" }

// DailySequence is the atomic per-day counter behind complaint numbering.
// Day is the UTC calendar day in YYYYMMDD form; Value is the count of
// complaints ever created that day. Rows are only ever incremented, never
// reset, so numbers are never reused even after deletion.
type DailySequence struct {
	Day   string `gorm:"type:char(8);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName returns the database table name for DailySequence.
func (DailySequence) TableName() string { return "complaint_sequences" }
