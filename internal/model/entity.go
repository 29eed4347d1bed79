package model

import "time"

// Document field names shared by the stores and the condition builder.
const (
	FieldID           = "_id"
	FieldOwner        = "owner"
	FieldName         = "name"
	FieldMediaType    = "mediaType"
	FieldCategory     = "category"
	FieldGroup        = "group"
	FieldOrderInGroup = "orderInGroup"
	FieldOwnPlatform  = "ownPlatform"
	FieldImportance   = "importance"
	FieldCompletedOn  = "completedOn"
	FieldActive       = "active"
	FieldReleaseDate  = "releaseDate"
	FieldAuthors      = "authors"
	FieldDirectors    = "directors"
	FieldCreators     = "creators"
	FieldDevelopers   = "developers"
)

// Entity holds the identity and ownership columns every persisted record carries.
type Entity struct {
	ID        string    `json:"_id"       bson:"_id"`
	Owner     string    `json:"owner"     bson:"owner"     validate:"required"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (e *Entity) GetID() string { return e.ID }
func (e *Entity) SetID(id string) { e.ID = id }
func (e *Entity) GetOwner() string { return e.Owner }
func (e *Entity) SetOwner(owner string) { e.Owner = owner }
func (e *Entity) GetCreatedAt() time.Time { return e.CreatedAt }
func (e *Entity) SetCreatedAt(t time.Time) { e.CreatedAt = t }

// Touch stamps the record as written at now. CreatedAt is only set once.
func (e *Entity) Touch(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// Persisted is implemented by pointers to every stored record.
type Persisted interface {
	GetID() string
	SetID(id string)
	GetOwner() string
	SetOwner(owner string)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	Touch(now time.Time)
}
