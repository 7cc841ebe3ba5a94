package domain

// Stage is a kanban column within a project. Every project keeps exactly
// one default stage, which collects tasks whose stage goes away.
type Stage struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Sequence  int    `json:"sequence"`
	IsDefault bool   `json:"is_default"`
}

// DefaultStageName is the name given to the stage created with a new project.
const DefaultStageName = "Backlog"
