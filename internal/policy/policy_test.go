package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blancapp/blanc-server/internal/domain"
)

func TestProject_ReadRequiresMembership(t *testing.T) {
	tests := []struct {
		name    string
		rel     domain.Relationship
		allowed bool
	}{
		{"owner", domain.RelationshipOwner, true},
		{"manager", domain.RelationshipManager, true},
		{"member", domain.RelationshipMember, true},
		{"outsider", domain.RelationshipNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Project(OpRead, Input{Rel: tt.rel})
			assert.Equal(t, tt.allowed, d.Allowed)
		})
	}
}

func TestProject_MutationsAreManagerOnly(t *testing.T) {
	for _, op := range []Operation{OpUpdate, OpArchive, OpDuplicate, OpDelete, OpManageMembers} {
		t.Run(string(op), func(t *testing.T) {
			assert.True(t, Project(op, Input{Rel: domain.RelationshipOwner}).Allowed)
			assert.True(t, Project(op, Input{Rel: domain.RelationshipManager}).Allowed)

			d := Project(op, Input{Rel: domain.RelationshipMember})
			assert.False(t, d.Allowed)
			assert.Equal(t, "manager_required", d.Reason)

			assert.False(t, Project(op, Input{Rel: domain.RelationshipNone}).Allowed)
		})
	}
}

func TestProject_AdminOverride(t *testing.T) {
	d := Project(OpDelete, Input{Rel: domain.RelationshipNone, Admin: true})
	assert.True(t, d.Allowed)
	assert.Equal(t, "admin", d.Reason)
}

func TestTask_UpdateInvolvement(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		allowed bool
		reason  string
	}{
		{"manager", Input{Rel: domain.RelationshipManager}, true, "manager"},
		{"owner", Input{Rel: domain.RelationshipOwner}, true, "owner"},
		{"creator member", Input{Rel: domain.RelationshipMember, Creator: true}, true, "creator"},
		{"assignee member", Input{Rel: domain.RelationshipMember, Assignee: true}, true, "assignee"},
		{"uninvolved member", Input{Rel: domain.RelationshipMember}, false, "not_involved"},
		{"outsider creator", Input{Rel: domain.RelationshipNone, Creator: true}, false, "not_member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Task(OpUpdate, tt.in)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestTask_DestructiveOpsIgnoreCreator(t *testing.T) {
	// Creating a task does not entitle you to delete it.
	for _, op := range []Operation{OpDelete, OpArchive, OpDuplicate} {
		t.Run(string(op), func(t *testing.T) {
			d := Task(op, Input{Rel: domain.RelationshipMember, Creator: true, Assignee: true})
			assert.False(t, d.Allowed)
			assert.Equal(t, "manager_row_required", d.Reason)

			assert.True(t, Task(op, Input{Rel: domain.RelationshipManager, Manager: true}).Allowed)
		})
	}

	d := Task(OpAssign, Input{Rel: domain.RelationshipMember, Creator: true, Assignee: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, "manager_required", d.Reason)
	assert.True(t, Task(OpAssign, Input{Rel: domain.RelationshipManager}).Allowed)
}

func TestTask_DestructiveOpsNeedManagerRow(t *testing.T) {
	// Ownership alone is not enough to delete, archive or duplicate a
	// task; the owner must still hold a manager membership row.
	for _, op := range []Operation{OpDelete, OpArchive, OpDuplicate} {
		t.Run(string(op), func(t *testing.T) {
			d := Task(op, Input{Rel: domain.RelationshipOwner})
			assert.False(t, d.Allowed)
			assert.Equal(t, "manager_row_required", d.Reason)

			assert.True(t, Task(op, Input{Rel: domain.RelationshipOwner, Manager: true}).Allowed)
		})
	}

	// Assignment changes still accept owner standing by itself.
	assert.True(t, Task(OpAssign, Input{Rel: domain.RelationshipOwner}).Allowed)
}

func TestTask_ReadAndCreateForMembers(t *testing.T) {
	assert.True(t, Task(OpRead, Input{Rel: domain.RelationshipMember}).Allowed)
	assert.True(t, Task(OpCreate, Input{Rel: domain.RelationshipMember}).Allowed)
	assert.False(t, Task(OpRead, Input{Rel: domain.RelationshipNone}).Allowed)
}

func TestStage_ManagerOnlyMutation(t *testing.T) {
	assert.True(t, Stage(OpRead, Input{Rel: domain.RelationshipMember}).Allowed)
	assert.False(t, Stage(OpCreate, Input{Rel: domain.RelationshipMember}).Allowed)
	assert.True(t, Stage(OpDelete, Input{Rel: domain.RelationshipManager}).Allowed)
	assert.False(t, Stage(OpRead, Input{Rel: domain.RelationshipNone}).Allowed)
}

func TestMessage_AuthorOnlyEdits(t *testing.T) {
	assert.True(t, Message(OpCreate, Input{Rel: domain.RelationshipMember}).Allowed)
	assert.False(t, Message(OpCreate, Input{Rel: domain.RelationshipNone}).Allowed)

	// Even a manager cannot edit someone else's comment.
	d := Message(OpUpdate, Input{Rel: domain.RelationshipManager})
	assert.False(t, d.Allowed)
	assert.Equal(t, "author_only", d.Reason)

	assert.True(t, Message(OpDelete, Input{Rel: domain.RelationshipMember, Author: true}).Allowed)
}

func TestNotification_RecipientScoped(t *testing.T) {
	assert.True(t, Notification(OpRead, Input{Recipient: true}).Allowed)

	// Admin standing does not open another user's inbox.
	d := Notification(OpRead, Input{Admin: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, "recipient_only", d.Reason)
}

func TestUnknownOperation(t *testing.T) {
	d := Project(Operation("sparkle"), Input{Rel: domain.RelationshipOwner})
	assert.False(t, d.Allowed)
	assert.Equal(t, "unknown_operation", d.Reason)
}
