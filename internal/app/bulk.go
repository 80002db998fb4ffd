package app

import (
	"fmt"
	"strings"

	"github.com/hylla/taskscope/internal/domain"
)

// OperationName is the wire name of a bulk operation.
type OperationName string

// OperationName values.
const (
	OpUpdateStatus   OperationName = "update-status"
	OpUpdateAssignee OperationName = "update-assignee"
	OpUpdatePriority OperationName = "update-priority"
	OpAddTags        OperationName = "add-tags"
	OpRemoveTags     OperationName = "remove-tags"
	OpUpdateProject  OperationName = "update-project"
	OpClone          OperationName = "clone"
	OpDelete         OperationName = "delete"
)

// OperationNames lists every bulk operation in menu order.
var OperationNames = []OperationName{
	OpUpdateStatus,
	OpUpdateAssignee,
	OpUpdatePriority,
	OpAddTags,
	OpRemoveTags,
	OpUpdateProject,
	OpClone,
	OpDelete,
}

// DefaultCloneSuffix is appended to cloned task titles.
const DefaultCloneSuffix = " (copy)"

// BulkOperation is one of the typed operations below.
type BulkOperation interface {
	Name() OperationName
}

// UpdateStatusOp sets the status of every selected task.
type UpdateStatusOp struct {
	Status domain.Status
}

// UpdateAssigneeOp reassigns every selected task.
type UpdateAssigneeOp struct {
	AssigneeID   string
	AssigneeName string
}

// UpdatePriorityOp sets the priority of every selected task.
type UpdatePriorityOp struct {
	Priority domain.Priority
}

// AddTagsOp unions parsed tags into every selected task.
type AddTagsOp struct {
	Tags []string
}

// RemoveTagsOp subtracts parsed tags from every selected task, ignoring case.
type RemoveTagsOp struct {
	Tags []string
}

// UpdateProjectOp moves every selected task to a project.
type UpdateProjectOp struct {
	ProjectID   string
	ProjectName string
}

// CloneOp duplicates every selected task right after its source.
type CloneOp struct {
	TitleSuffix string
}

// DeleteOp removes every selected task.
type DeleteOp struct{}

// Name implements BulkOperation.
func (UpdateStatusOp) Name() OperationName { return OpUpdateStatus }

// Name implements BulkOperation.
func (UpdateAssigneeOp) Name() OperationName { return OpUpdateAssignee }

// Name implements BulkOperation.
func (UpdatePriorityOp) Name() OperationName { return OpUpdatePriority }

// Name implements BulkOperation.
func (AddTagsOp) Name() OperationName { return OpAddTags }

// Name implements BulkOperation.
func (RemoveTagsOp) Name() OperationName { return OpRemoveTags }

// Name implements BulkOperation.
func (UpdateProjectOp) Name() OperationName { return OpUpdateProject }

// Name implements BulkOperation.
func (CloneOp) Name() OperationName { return OpClone }

// Name implements BulkOperation.
func (DeleteOp) Name() OperationName { return OpDelete }

// BulkResult reports what an operation touched.
type BulkResult struct {
	Operation OperationName
	Updated   []string
	Created   []string
	Deleted   []string
	// Missing lists requested ids that matched no task.
	Missing []string
}

// ParseOperation maps the string form of an operation and its payload to a typed operation.
// Payload keys: status, assignee_id, assignee_name, priority, tags, project_id, project_name,
// title_suffix.
func ParseOperation(name string, data map[string]string) (BulkOperation, error) {
	get := func(key string) string {
		return strings.TrimSpace(data[key])
	}
	switch OperationName(strings.ToLower(strings.TrimSpace(name))) {
	case OpUpdateStatus:
		status := domain.NormalizeStatus(get("status"))
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidPayload, domain.ErrInvalidStatus, get("status"))
		}
		return UpdateStatusOp{Status: status}, nil
	case OpUpdateAssignee:
		return UpdateAssigneeOp{AssigneeID: get("assignee_id"), AssigneeName: get("assignee_name")}, nil
	case OpUpdatePriority:
		priority := domain.NormalizePriority(get("priority"))
		if !priority.IsValid() {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidPayload, domain.ErrInvalidPriority, get("priority"))
		}
		return UpdatePriorityOp{Priority: priority}, nil
	case OpAddTags:
		return AddTagsOp{Tags: domain.ParseTagList(data["tags"])}, nil
	case OpRemoveTags:
		return RemoveTagsOp{Tags: domain.ParseTagList(data["tags"])}, nil
	case OpUpdateProject:
		return UpdateProjectOp{ProjectID: get("project_id"), ProjectName: get("project_name")}, nil
	case OpClone:
		suffix, ok := data["title_suffix"]
		if !ok {
			suffix = DefaultCloneSuffix
		}
		return CloneOp{TitleSuffix: suffix}, nil
	case OpDelete:
		return DeleteOp{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
}

// bulkPatch returns the per-task patch for operations that edit fields in place.
func bulkPatch(op BulkOperation, task domain.Task) (domain.TaskPatch, bool) {
	switch op := op.(type) {
	case UpdateStatusOp:
		return domain.StatusPatch(op.Status), true
	case UpdateAssigneeOp:
		return domain.TaskPatch{AssigneeID: &op.AssigneeID, AssigneeName: &op.AssigneeName}, true
	case UpdatePriorityOp:
		return domain.TaskPatch{Priority: &op.Priority}, true
	case AddTagsOp:
		return domain.TagsPatch(domain.UnionTags(task.Tags, op.Tags)), true
	case RemoveTagsOp:
		return domain.TagsPatch(domain.SubtractTags(task.Tags, op.Tags)), true
	case UpdateProjectOp:
		return domain.TaskPatch{ProjectID: &op.ProjectID, ProjectName: &op.ProjectName}, true
	default:
		return domain.TaskPatch{}, false
	}
}
