package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// ProjectRepository provides in-memory project and item storage
type ProjectRepository struct {
	projects    []entities.Project
	projectsMap map[entities.ProjectID]int
	items       []entities.ProjectItem
}

// NewProjectRepository creates a new in-memory project repository
func NewProjectRepository(expectedItems int) *ProjectRepository {
	return &ProjectRepository{
		projects:    []entities.Project{},
		projectsMap: make(map[entities.ProjectID]int),
		items:       make([]entities.ProjectItem, 0, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

// LoadProjects loads projects into the repository
func (r *ProjectRepository) LoadProjects(projects []*entities.Project) error {
	for _, project := range projects {
		r.AddProject(*project)
	}
	return nil
}

// LoadItems loads items into the repository; every item must belong to a loaded project
func (r *ProjectRepository) LoadItems(items []*entities.ProjectItem) error {
	for _, item := range items {
		if _, exists := r.projectsMap[item.ProjectID]; !exists {
			return fmt.Errorf("item %s references unknown project %d", item.ItemCode, item.ProjectID)
		}
		r.items = append(r.items, *item)
	}
	return nil
}

// AddProject adds or replaces a project
func (r *ProjectRepository) AddProject(project entities.Project) {
	if index, exists := r.projectsMap[project.ID]; exists {
		r.projects[index] = project
		return
	}
	r.projectsMap[project.ID] = len(r.projects)
	r.projects = append(r.projects, project)
}

// GetActiveProjects returns active projects, optionally restricted to ids
func (r *ProjectRepository) GetActiveProjects(
	ctx context.Context,
	ids []entities.ProjectID,
) ([]*entities.Project, error) {
	wanted := idSet(ids)
	var projects []*entities.Project
	for i := range r.projects {
		project := &r.projects[i]
		if !project.Active {
			continue
		}
		if wanted != nil && !wanted[project.ID] {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// GetItems returns the items of the given projects
func (r *ProjectRepository) GetItems(
	ctx context.Context,
	projectIDs []entities.ProjectID,
) ([]*entities.ProjectItem, error) {
	wanted := idSet(projectIDs)
	var items []*entities.ProjectItem
	for i := range r.items {
		item := &r.items[i]
		if wanted != nil && !wanted[item.ProjectID] {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// GetProject returns a project by id
func (r *ProjectRepository) GetProject(id entities.ProjectID) (*entities.Project, error) {
	index, exists := r.projectsMap[id]
	if !exists {
		return nil, fmt.Errorf("project not found: %d", id)
	}
	return &r.projects[index], nil
}

func idSet(ids []entities.ProjectID) map[entities.ProjectID]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[entities.ProjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
