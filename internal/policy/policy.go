// Package policy centralizes authorization decisions for project-scoped
// resources. Services resolve the caller's standing (relationship to the
// project plus entity-level facts like authorship) and ask for a ruling;
// nothing in here touches the database.
package policy

import (
	"github.com/blancapp/blanc-server/internal/domain"
)

// Operation is something a caller wants to do to a resource.
type Operation string

const (
	OpRead          Operation = "read"
	OpCreate        Operation = "create"
	OpUpdate        Operation = "update"
	OpDelete        Operation = "delete"
	OpArchive       Operation = "archive"
	OpDuplicate     Operation = "duplicate"
	OpAssign        Operation = "assign"
	OpManageMembers Operation = "manage_members"
)

// Input carries everything a rule may depend on. Resolve the cheap facts
// first; rules never trigger lookups of their own.
type Input struct {
	Rel   domain.Relationship
	Admin bool // global admin, overrides project standing

	// Manager reports an actual manager membership row. Ownership alone
	// does not set it: the owner's row can be demoted or removed, and
	// the rules that demand a row must see that.
	Manager bool

	// Entity-level facts. Only the ones relevant to the resource need
	// to be set.
	Creator   bool // caller created the entity
	Assignee  bool // caller is assigned to the task
	Author    bool // caller wrote the message
	Recipient bool // caller owns the notification
}

// Decision is the outcome of a policy check. Reason is a stable token
// suitable for logs and error details, naming what granted or denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Project rules on the project resource itself.
//
// Read requires membership. Update, delete, archive, duplicate and
// membership changes require manager standing. Deleting additionally
// requires ownership or admin.
func Project(op Operation, in Input) Decision {
	if in.Admin {
		return allow("admin")
	}

	switch op {
	case OpRead:
		if in.Rel.IsMember() {
			return allow(string(in.Rel))
		}
		return deny("not_member")
	case OpDelete:
		if in.Rel == domain.RelationshipOwner {
			return allow("owner")
		}
		if in.Rel.AtLeastManager() {
			return allow("manager")
		}
		return deny("manager_required")
	case OpUpdate, OpArchive, OpDuplicate, OpManageMembers:
		if in.Rel.AtLeastManager() {
			return allow(string(in.Rel))
		}
		return deny("manager_required")
	}
	return deny("unknown_operation")
}

// Task rules.
//
// Any project member can read and create. Updating is open to the task's
// creator, its assignees and project managers. Destructive operations
// (delete, archive, duplicate) demand a manager membership row: an owner
// whose row was removed or demoted is not grandfathered in. Assignment
// changes take owner or manager standing.
func Task(op Operation, in Input) Decision {
	if in.Admin {
		return allow("admin")
	}
	if !in.Rel.IsMember() {
		return deny("not_member")
	}

	switch op {
	case OpRead, OpCreate:
		return allow(string(in.Rel))
	case OpUpdate:
		if in.Rel.AtLeastManager() {
			return allow(string(in.Rel))
		}
		if in.Creator {
			return allow("creator")
		}
		if in.Assignee {
			return allow("assignee")
		}
		return deny("not_involved")
	case OpDelete, OpArchive, OpDuplicate:
		if in.Manager {
			return allow("manager")
		}
		return deny("manager_row_required")
	case OpAssign:
		if in.Rel.AtLeastManager() {
			return allow(string(in.Rel))
		}
		return deny("manager_required")
	}
	return deny("unknown_operation")
}

// Stage rules. Reading the board needs membership; reshaping it needs
// manager standing. Moving a task between stages is a task update, so it
// goes through Task, not here.
func Stage(op Operation, in Input) Decision {
	if in.Admin {
		return allow("admin")
	}
	if !in.Rel.IsMember() {
		return deny("not_member")
	}

	switch op {
	case OpRead:
		return allow(string(in.Rel))
	case OpCreate, OpUpdate, OpDelete:
		if in.Rel.AtLeastManager() {
			return allow(string(in.Rel))
		}
		return deny("manager_required")
	}
	return deny("unknown_operation")
}

// Message rules. Membership in the target's project gates reading and
// posting; editing and deleting are author-only.
func Message(op Operation, in Input) Decision {
	if in.Admin {
		return allow("admin")
	}

	switch op {
	case OpRead, OpCreate:
		if in.Rel.IsMember() {
			return allow(string(in.Rel))
		}
		return deny("not_member")
	case OpUpdate, OpDelete:
		if in.Author {
			return allow("author")
		}
		return deny("author_only")
	}
	return deny("unknown_operation")
}

// Notification rules. Strictly recipient-scoped; not even admins read
// someone else's inbox.
func Notification(op Operation, in Input) Decision {
	switch op {
	case OpRead, OpUpdate, OpDelete:
		if in.Recipient {
			return allow("recipient")
		}
		return deny("recipient_only")
	}
	return deny("unknown_operation")
}
