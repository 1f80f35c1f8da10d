package access

import (
	"github.com/taskward/taskward/pkg/principal"
	"github.com/taskward/taskward/pkg/resource"
)

// The engine does not persist anything, but it is the one component
// responsible for stamping the identity fields derived from the acting
// principal, so callers cannot forge them from form input.

// StampBoard marks the acting principal as the board's owner
func StampBoard(p principal.Principal, b resource.Board) resource.Board {
	b.OwnerID = p.ID
	return b
}

// StampProject marks the acting principal as the project's owner
func StampProject(p principal.Principal, proj resource.Project) resource.Project {
	proj.OwnerID = p.ID
	return proj
}

// StampTask marks the acting principal as the task's creator
func StampTask(p principal.Principal, t resource.Task) resource.Task {
	t.CreatorID = p.ID
	return t
}
