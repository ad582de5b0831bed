package repositories

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ProjectRepository provides access to projects and their demand lines
type ProjectRepository interface {
	// GetActiveProjects returns active projects, optionally restricted to ids
	GetActiveProjects(ctx context.Context, ids []entities.ProjectID) ([]*entities.Project, error)
	// GetItems returns the items of the given projects with their delivery options
	GetItems(ctx context.Context, projectIDs []entities.ProjectID) ([]*entities.ProjectItem, error)
}
