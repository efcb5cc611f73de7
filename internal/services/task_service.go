package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"github.com/yukikurage/team-checklist-api/internal/tasktree"
	"gorm.io/gorm"
)

// maxWriteAttempts bounds how often a reorder is recomputed from fresh state
// after a concurrent change made the previous snapshot stale.
const maxWriteAttempts = 3

var (
	ErrNotTeamMember          = errors.New("user is not a member of the team")
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskPermissionDenied   = errors.New("only the task creator or a team owner can perform this action")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidTaskAssignee    = errors.New("one or more users do not exist or are not members of the team")
	ErrTaskConflict           = errors.New("task was changed concurrently, please retry")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

var taskDetailPreloads = []string{"Creator", "Team", "Assignments", "Assignments.User"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	teamRepo  repository.TeamRepository
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		teamRepo:  teamRepo,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task. Index places the task
// at a slot among its siblings; nil appends it.
type CreateTaskInput struct {
	Title       string
	Description string
	TeamID      uint64
	CreatorID   uint64
	ParentID    *uint64
	Index       *int
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
}

// ReparentInput represents input for moving a task under another parent
type ReparentInput struct {
	ParentID *uint64
	Index    *int
}

// AssignUsersInput represents input for assigning users to a task
type AssignUsersInput struct {
	TaskID  uint64
	ActorID uint64
	UserIDs []uint64
}

// ListTeamTasks returns every live task of a team
func (s *TaskService) ListTeamTasks(teamID, userID uint64) ([]models.Task, error) {
	if err := s.ensureTeamMember(teamID, userID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByTeam(teamID, false, "Assignments", "Assignments.User")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a live task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	return s.findLiveTask(taskID, taskDetailPreloads...)
}

// CreateTask creates a task at the end of its sibling group, or at Index
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if err := s.ensureTeamMember(input.TeamID, input.CreatorID); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.retryStale(func() error {
		nodes, err := s.teamNodes(input.TeamID, false)
		if err != nil {
			return err
		}

		if input.ParentID != nil {
			if _, ok := findNode(nodes, *input.ParentID); !ok {
				return tasktree.ErrInvalidParent
			}
		}

		position, renumber, err := positionFor(nodes, input.ParentID, input.Index, 0)
		if err != nil {
			return err
		}

		task = &models.Task{
			Title:       title,
			Description: input.Description,
			Status:      models.TaskStatusTodo,
			ParentID:    input.ParentID,
			Position:    position,
			TeamID:      input.TeamID,
			CreatorID:   input.CreatorID,
		}
		return s.taskRepo.Create(task, renumber)
	})
	if err != nil {
		if errors.Is(err, tasktree.ErrInvalidParent) || errors.Is(err, ErrTaskConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskDetailPreloads...)
}

// UpdateTask edits title and description. Ordering is not affected.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskDetailPreloads...)
}

// MoveTask swaps a task with its neighbour in the given direction. A task
// already at the boundary is returned unchanged. When the two share a
// position the group is spread out first, in the same write.
func (s *TaskService) MoveTask(taskID uint64, direction tasktree.Direction) (*models.Task, error) {
	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	err = s.retryStale(func() error {
		nodes, err := s.teamNodes(task.TeamID, false)
		if err != nil {
			return err
		}

		updates, err := tasktree.Move(nodes, taskID, direction)
		if err != nil {
			return translateTreeError(err)
		}

		if len(updates) == 2 && updates[0].From == updates[1].From {
			node, _ := findNode(nodes, taskID)
			renumber := tasktree.Renumber(tasktree.SiblingsOf(nodes, node.ParentID))
			swap, err := tasktree.Move(applyUpdates(nodes, renumber), taskID, direction)
			if err != nil {
				return translateTreeError(err)
			}
			updates = tasktree.Compose(renumber, swap)
		}

		return s.taskRepo.ApplyPositions(updates)
	})
	if err != nil {
		return nil, err
	}

	return s.taskRepo.FindByID(taskID, taskDetailPreloads...)
}

// ReparentTask moves a task under a new parent (nil for the root level),
// appended or at Index among the new siblings.
func (s *TaskService) ReparentTask(taskID uint64, input ReparentInput) (*models.Task, error) {
	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	err = s.retryStale(func() error {
		nodes, err := s.teamNodes(task.TeamID, false)
		if err != nil {
			return err
		}

		node, err := tasktree.Reparent(nodes, taskID, input.ParentID, nil)
		if err != nil {
			return translateTreeError(err)
		}

		var renumber []tasktree.PositionUpdate
		if input.Index != nil {
			node.Position, renumber, err = positionFor(nodes, input.ParentID, input.Index, taskID)
			if err != nil {
				return err
			}
		}

		return s.taskRepo.Reparent(taskID, node.ParentID, node.Position, renumber)
	})
	if err != nil {
		return nil, err
	}

	return s.taskRepo.FindByID(taskID, taskDetailPreloads...)
}

// DeleteTask soft-deletes a task and its whole subtree and returns the ids
// that were deleted.
func (s *TaskService) DeleteTask(taskID, actorID uint64) ([]uint64, error) {
	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCreatorOrOwner(task, actorID); err != nil {
		return nil, err
	}

	nodes, err := s.teamNodes(task.TeamID, true)
	if err != nil {
		return nil, err
	}

	affected, err := tasktree.SoftDeleteSubtree(nodes, taskID)
	if err != nil {
		return nil, translateTreeError(err)
	}

	if err := s.taskRepo.SoftDelete(affected); err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	return affected, nil
}

// ToggleTaskStatus flips a task between TODO and DONE and records who completed it
func (s *TaskService) ToggleTaskStatus(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureTeamMember(task.TeamID, actorID); err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusDone {
		task.Status = models.TaskStatusTodo
		task.CompletedByID = nil
		task.CompletedAt = nil
	} else {
		now := time.Now()
		task.Status = models.TaskStatusDone
		task.CompletedByID = &actorID
		task.CompletedAt = &now
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	return s.taskRepo.FindByID(taskID, taskDetailPreloads...)
}

// AssignUsers assigns multiple users to a task with validation
func (s *TaskService) AssignUsers(input AssignUsersInput) (*models.Task, error) {
	if len(input.UserIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.findLiveTask(input.TaskID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCreatorOrOwner(task, input.ActorID); err != nil {
		return nil, err
	}

	userIDs := uniqueUint64(input.UserIDs)

	count, err := s.taskRepo.CountMembersByIDs(userIDs, task.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return nil, ErrInvalidTaskAssignee
	}

	if err := s.taskRepo.AssignUsers(task.ID, userIDs); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskDetailPreloads...)
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(taskID, actorID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.findLiveTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCreatorOrOwner(task, actorID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.UnassignUsers(taskID, uniqueUint64(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to unassign users: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskDetailPreloads...)
}

// SweepPositions renumbers every sibling group that holds duplicate
// positions and returns how many groups were repaired.
func (s *TaskService) SweepPositions() (int, error) {
	teamIDs, err := s.taskRepo.ListTeamIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}

	repaired := 0
	for _, teamID := range teamIDs {
		nodes, err := s.teamNodes(teamID, false)
		if err != nil {
			return repaired, err
		}

		for _, group := range tasktree.FindDuplicatePositions(nodes) {
			if err := s.taskRepo.ApplyPositions(tasktree.Renumber(group)); err != nil {
				return repaired, fmt.Errorf("failed to renumber team %d: %w", teamID, err)
			}
			repaired++
		}
	}

	return repaired, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text   string
	TeamID uint64
	UserID uint64
}

// GenerateTasks uses AI to suggest checklist items from text
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if err := s.ensureTeamMember(input.TeamID, input.UserID); err != nil {
		return nil, err
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// positionFor picks a position under parentID: appended when index is nil,
// otherwise at the slot. A collapsed gap is resolved by renumbering the group;
// the renumber is returned for the caller to write together with the task.
func positionFor(nodes []tasktree.Node, parentID *uint64, index *int, excludeID uint64) (int64, []tasktree.PositionUpdate, error) {
	if index == nil {
		siblings := tasktree.SiblingsOf(nodes, parentID)
		if excludeID != 0 {
			siblings = withoutNode(siblings, excludeID)
		}
		return tasktree.NextPosition(siblings), nil, nil
	}

	position, err := tasktree.PositionAt(nodes, parentID, *index, excludeID)
	if !errors.Is(err, tasktree.ErrPositionCollision) {
		return position, nil, err
	}

	renumber := tasktree.Renumber(tasktree.SiblingsOf(nodes, parentID))
	position, err = tasktree.PositionAt(applyUpdates(nodes, renumber), parentID, *index, excludeID)
	if err != nil {
		return 0, nil, err
	}
	return position, renumber, nil
}

// retryStale runs fn until it stops failing with a stale snapshot
func (s *TaskService) retryStale(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrStaleTask) {
			return err
		}
	}
	return ErrTaskConflict
}

func (s *TaskService) teamNodes(teamID uint64, includeDeleted bool) ([]tasktree.Node, error) {
	tasks, err := s.taskRepo.ListByTeam(teamID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to load team tasks: %w", err)
	}
	return models.Nodes(tasks), nil
}

func (s *TaskService) findLiveTask(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.IsDeleted {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ensureTeamMember verifies that a user belongs to a team
func (s *TaskService) ensureTeamMember(teamID, userID uint64) error {
	_, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	return nil
}

func (s *TaskService) ensureCreatorOrOwner(task *models.Task, actorID uint64) error {
	if task.CreatorID == actorID {
		return nil
	}

	member, err := s.teamRepo.FindMember(task.TeamID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	if member.Role != models.RoleOwner {
		return ErrTaskPermissionDenied
	}
	return nil
}

func translateTreeError(err error) error {
	if errors.Is(err, tasktree.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func findNode(nodes []tasktree.Node, id uint64) (tasktree.Node, bool) {
	for _, n := range nodes {
		if n.ID == id && !n.IsDeleted {
			return n, true
		}
	}
	return tasktree.Node{}, false
}

func withoutNode(nodes []tasktree.Node, id uint64) []tasktree.Node {
	result := make([]tasktree.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.ID != id {
			result = append(result, n)
		}
	}
	return result
}

func applyUpdates(nodes []tasktree.Node, updates []tasktree.PositionUpdate) []tasktree.Node {
	positions := make(map[uint64]int64, len(updates))
	for _, u := range updates {
		positions[u.ID] = u.Position
	}

	result := make([]tasktree.Node, len(nodes))
	for i, n := range nodes {
		if p, ok := positions[n.ID]; ok {
			n.Position = p
		}
		result[i] = n
	}
	return result
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
