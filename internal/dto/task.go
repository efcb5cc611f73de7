package dto

import (
	"time"

	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/tasktree"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code,omitempty"`
}

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	User       UserDTO   `json:"user"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	ParentID      *uint64             `json:"parent_id"`
	Position      int64               `json:"position"`
	CreatorID     uint64              `json:"creator_id"`
	TeamID        uint64              `json:"team_id"`
	CompletedByID *uint64             `json:"completed_by_id"`
	CompletedAt   *time.Time          `json:"completed_at"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Creator       *UserDTO            `json:"creator,omitempty"`
	Team          *TeamDTO            `json:"team,omitempty"`
	Assignments   []TaskAssignmentDTO `json:"assignments,omitempty"`
}

// TaskTreeNodeDTO is a task with its ordered children
type TaskTreeNodeDTO struct {
	TaskDTO
	Children []TaskTreeNodeDTO `json:"children"`
}

// TaskTreeResponse is the ordered task forest of a team
type TaskTreeResponse struct {
	TeamID uint64            `json:"team_id"`
	Tasks  []TaskTreeNodeDTO `json:"tasks"`
	Total  int               `json:"total"`
}

// TaskDeleteResponse lists every task removed together with the requested one
type TaskDeleteResponse struct {
	DeletedIDs []uint64 `json:"deleted_ids"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team, includeJoinCode bool) TeamDTO {
	dto := TeamDTO{
		ID:   team.ID,
		Name: team.Name,
	}
	if includeJoinCode {
		dto.JoinCode = team.JoinCode
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		ParentID:      task.ParentID,
		Position:      task.Position,
		CreatorID:     task.CreatorID,
		TeamID:        task.TeamID,
		CompletedByID: task.CompletedByID,
		CompletedAt:   task.CompletedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include team if preloaded
	if task.Team.ID != 0 {
		team := ToTeamDTO(task.Team, false)
		dto.Team = &team
	}

	// Include assignments if preloaded
	if len(task.Assignments) > 0 {
		dto.Assignments = make([]TaskAssignmentDTO, len(task.Assignments))
		for i, assignment := range task.Assignments {
			dto.Assignments[i] = TaskAssignmentDTO{
				User:       ToUserDTO(assignment.User),
				AssignedAt: assignment.AssignedAt,
			}
		}
	}

	return dto
}

// ToTaskTreeResponse nests the live tasks of a team under their parents,
// each sibling group in display order. Tasks whose parent is not in the
// list are not reachable from the roots and are left out.
func ToTaskTreeResponse(teamID uint64, tasks []models.Task) TaskTreeResponse {
	byID := make(map[uint64]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	nodes := models.Nodes(tasks)

	var build func(parentID *uint64, visited map[uint64]bool) []TaskTreeNodeDTO
	build = func(parentID *uint64, visited map[uint64]bool) []TaskTreeNodeDTO {
		siblings := tasktree.SiblingsOf(nodes, parentID)
		result := make([]TaskTreeNodeDTO, 0, len(siblings))
		for _, n := range siblings {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true

			id := n.ID
			result = append(result, TaskTreeNodeDTO{
				TaskDTO:  ToTaskDTO(byID[n.ID]),
				Children: build(&id, visited),
			})
		}
		return result
	}

	visited := make(map[uint64]bool, len(tasks))
	roots := build(nil, visited)

	return TaskTreeResponse{
		TeamID: teamID,
		Tasks:  roots,
		Total:  len(visited),
	}
}
