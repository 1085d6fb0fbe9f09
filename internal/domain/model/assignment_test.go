package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessAssignment_NeedsPush(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := base.Add(-time.Hour)
	later := base.Add(time.Hour)

	tests := []struct {
		name       string
		lastPushAt *time.Time
		updatedAt  time.Time
		want       bool
	}{
		{name: "never pushed", lastPushAt: nil, updatedAt: base, want: true},
		{name: "modified after last push", lastPushAt: &base, updatedAt: later, want: true},
		{name: "pushed after last modification", lastPushAt: &base, updatedAt: earlier, want: false},
		{name: "push and modification at same instant", lastPushAt: &base, updatedAt: base, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AccessAssignment{LastPushAt: tt.lastPushAt, UpdatedAt: tt.updatedAt}
			assert.Equal(t, tt.want, a.NeedsPush())
		})
	}
}

func TestAccessAssignment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		contact string
		wantErr bool
	}{
		{name: "user only", user: "jdoe", wantErr: false},
		{name: "contact only", contact: "Jane Vendor", wantErr: false},
		{name: "neither", wantErr: true},
		{name: "both", user: "jdoe", contact: "Jane Vendor", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AccessAssignment{UserName: tt.user, ContactName: tt.contact}
			err := a.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoSubject)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessAssignment_SubjectName(t *testing.T) {
	assert.Equal(t, "jdoe", AccessAssignment{UserName: "jdoe"}.SubjectName())
	assert.Equal(t, "Jane Vendor", AccessAssignment{ContactName: "Jane Vendor"}.SubjectName())
	assert.Equal(t, "jdoe", AccessAssignment{UserName: "jdoe", ContactName: "x"}.SubjectName())
}

func TestValidRoleCategory(t *testing.T) {
	assert.True(t, ValidRoleCategory(RoleCategoryTicketing))
	assert.True(t, ValidRoleCategory(RoleCategoryLOAApprover))
	assert.False(t, ValidRoleCategory("SUPERUSER"))
	assert.False(t, ValidRoleCategory(""))
}
