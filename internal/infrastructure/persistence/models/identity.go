package models

import (
	"time"

	"github.com/tierhub/backend/internal/domain/identity"
)

// UserModel is the persistence model for the users table
type UserModel struct {
	AggregateModel
	ExternalID      string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_external_id"`
	Email           string        `gorm:"type:varchar(255)"`
	Name            string        `gorm:"type:varchar(255)"`
	Language        string        `gorm:"type:varchar(10);not null;default:'en'"`
	Role            identity.Role `gorm:"type:varchar(20);not null;default:'user'"`
	APICallsCount   int           `gorm:"column:api_calls_count;not null;default:0"`
	APIMaxCalls     int           `gorm:"column:api_max_calls;not null;default:100"`
	FirstConnection time.Time     `gorm:"not null;index"`
	LastConnection  time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.root(),
		ExternalID:        m.ExternalID,
		Email:             m.Email,
		Name:              m.Name,
		Language:          m.Language,
		Role:              m.Role,
		APICallsCount:     m.APICallsCount,
		APIMaxCalls:       m.APIMaxCalls,
		FirstConnection:   m.FirstConnection,
		LastConnection:    m.LastConnection,
	}
}

// FromDomain populates the persistence model from a domain User entity
func (m *UserModel) FromDomain(u *identity.User) {
	m.setRoot(u.BaseAggregateRoot)
	m.ExternalID = u.ExternalID
	m.Email = u.Email
	m.Name = u.Name
	m.Language = u.Language
	m.Role = u.Role
	m.APICallsCount = u.APICallsCount
	m.APIMaxCalls = u.APIMaxCalls
	m.FirstConnection = u.FirstConnection
	m.LastConnection = u.LastConnection
}

// UserModelFromDomain creates a new persistence model from a domain User entity
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
