package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"github.com/yukikurage/team-checklist-api/internal/tasktree"
	"gorm.io/gorm"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	owner   *models.User
	member  *models.User
	team    *models.Team
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.db = setupServiceDB(s.T())
	s.service = NewTaskService(repository.NewTaskRepository(s.db), repository.NewTeamRepository(s.db), nil)

	s.owner = seedUser(s.T(), s.db, "owner")
	s.member = seedUser(s.T(), s.db, "member")
	s.team = seedTeam(s.T(), s.db, "alpha")
	seedMember(s.T(), s.db, s.team.ID, s.owner.ID, models.RoleOwner)
	seedMember(s.T(), s.db, s.team.ID, s.member.ID, models.RoleMember)
}

func (s *TaskServiceTestSuite) create(title string, parentID *uint64) *models.Task {
	task, err := s.service.CreateTask(CreateTaskInput{
		Title:     title,
		TeamID:    s.team.ID,
		CreatorID: s.member.ID,
		ParentID:  parentID,
	})
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) order(parentID *uint64) []string {
	tasks, err := s.service.ListTeamTasks(s.team.ID, s.member.ID)
	s.Require().NoError(err)

	byID := make(map[uint64]string, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t.Title
	}

	titles := []string{}
	for _, n := range tasktree.SiblingsOf(models.Nodes(tasks), parentID) {
		titles = append(titles, byID[n.ID])
	}
	return titles
}

func (s *TaskServiceTestSuite) TestCreateTask_AppendsWithStep() {
	a := s.create("A", nil)
	b := s.create("B", nil)
	c := s.create("C", nil)

	s.Equal(int64(0), a.Position)
	s.Equal(int64(1000), b.Position)
	s.Equal(int64(2000), c.Position)
	s.Equal([]string{"A", "B", "C"}, s.order(nil))

	child := s.create("A.1", &a.ID)
	s.Equal(int64(0), child.Position)
	s.Require().Len(child.Assignments, 1)
	s.Equal(s.member.ID, child.Assignments[0].UserID)
}

func (s *TaskServiceTestSuite) TestCreateTask_AtIndex() {
	s.create("A", nil)
	s.create("C", nil)

	index := 1
	b, err := s.service.CreateTask(CreateTaskInput{Title: "B", TeamID: s.team.ID, CreatorID: s.member.ID, Index: &index})
	s.Require().NoError(err)
	s.Equal(int64(500), b.Position)

	head := 0
	_, err = s.service.CreateTask(CreateTaskInput{Title: "first", TeamID: s.team.ID, CreatorID: s.member.ID, Index: &head})
	s.Require().NoError(err)

	s.Equal([]string{"first", "A", "B", "C"}, s.order(nil))
}

func (s *TaskServiceTestSuite) TestCreateTask_RenumbersCollapsedGap() {
	a := s.create("A", nil)
	c := s.create("C", nil)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", a.ID).Update("position", 7).Error)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", c.ID).Update("position", 8).Error)

	index := 1
	b, err := s.service.CreateTask(CreateTaskInput{Title: "B", TeamID: s.team.ID, CreatorID: s.member.ID, Index: &index})
	s.Require().NoError(err)
	s.Equal(int64(500), b.Position)
	s.Equal([]string{"A", "B", "C"}, s.order(nil))
}

func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	_, err := s.service.CreateTask(CreateTaskInput{Title: "  ", TeamID: s.team.ID, CreatorID: s.member.ID})
	s.ErrorIs(err, ErrTitleRequired)

	outsider := seedUser(s.T(), s.db, "outsider")
	_, err = s.service.CreateTask(CreateTaskInput{Title: "x", TeamID: s.team.ID, CreatorID: outsider.ID})
	s.ErrorIs(err, ErrNotTeamMember)

	missing := uint64(999)
	_, err = s.service.CreateTask(CreateTaskInput{Title: "x", TeamID: s.team.ID, CreatorID: s.member.ID, ParentID: &missing})
	s.ErrorIs(err, tasktree.ErrInvalidParent)
}

func (s *TaskServiceTestSuite) TestMoveTask() {
	a := s.create("A", nil)
	b := s.create("B", nil)
	s.create("C", nil)

	moved, err := s.service.MoveTask(b.ID, tasktree.DirectionUp)
	s.Require().NoError(err)
	s.Equal(a.Position, moved.Position)
	s.Equal([]string{"B", "A", "C"}, s.order(nil))

	// Already first: no-op.
	_, err = s.service.MoveTask(b.ID, tasktree.DirectionUp)
	s.Require().NoError(err)
	s.Equal([]string{"B", "A", "C"}, s.order(nil))

	_, err = s.service.MoveTask(b.ID, tasktree.DirectionDown)
	s.Require().NoError(err)
	s.Equal([]string{"A", "B", "C"}, s.order(nil))

	_, err = s.service.MoveTask(b.ID, tasktree.Direction("left"))
	s.ErrorIs(err, tasktree.ErrInvalidDirection)

	_, err = s.service.MoveTask(12345, tasktree.DirectionUp)
	s.ErrorIs(err, ErrTaskNotFound)
}

// racingTaskRepository runs a competing write right before the first
// position batch reaches the database.
type racingTaskRepository struct {
	repository.TaskRepository
	before func()
}

func (r *racingTaskRepository) ApplyPositions(updates []tasktree.PositionUpdate) error {
	if before := r.before; before != nil {
		r.before = nil
		before()
	}
	return r.TaskRepository.ApplyPositions(updates)
}

func (s *TaskServiceTestSuite) TestMoveTask_RecomputesAfterConcurrentMove() {
	s.create("A", nil)
	b := s.create("B", nil)
	c := s.create("C", nil)

	racing := &racingTaskRepository{TaskRepository: repository.NewTaskRepository(s.db)}
	racing.before = func() {
		_, err := s.service.MoveTask(b.ID, tasktree.DirectionUp)
		s.Require().NoError(err)
	}
	service := NewTaskService(racing, repository.NewTeamRepository(s.db), nil)

	_, err := service.MoveTask(c.ID, tasktree.DirectionUp)
	s.Require().NoError(err)
	s.Equal([]string{"B", "C", "A"}, s.order(nil))

	tasks, err := s.service.ListTeamTasks(s.team.ID, s.member.ID)
	s.Require().NoError(err)
	s.Empty(tasktree.FindDuplicatePositions(models.Nodes(tasks)))
}

func (s *TaskServiceTestSuite) TestMoveTask_SeparatesTiedNeighbours() {
	s.create("A", nil)
	s.create("B", nil)
	c := s.create("C", nil)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", c.ID).Update("position", 1000).Error)

	_, err := s.service.MoveTask(c.ID, tasktree.DirectionUp)
	s.Require().NoError(err)
	s.Equal([]string{"A", "C", "B"}, s.order(nil))

	tasks, err := s.service.ListTeamTasks(s.team.ID, s.member.ID)
	s.Require().NoError(err)
	s.Empty(tasktree.FindDuplicatePositions(models.Nodes(tasks)))
}

func (s *TaskServiceTestSuite) TestReparentTask_RenumbersCollapsedGap() {
	parent := s.create("parent", nil)
	first := s.create("first", &parent.ID)
	last := s.create("last", &parent.ID)
	loose := s.create("loose", nil)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", first.ID).Update("position", 7).Error)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", last.ID).Update("position", 8).Error)

	index := 1
	moved, err := s.service.ReparentTask(loose.ID, ReparentInput{ParentID: &parent.ID, Index: &index})
	s.Require().NoError(err)
	s.Equal(int64(500), moved.Position)
	s.Equal([]string{"first", "loose", "last"}, s.order(&parent.ID))
}

func (s *TaskServiceTestSuite) TestReparentTask() {
	a := s.create("A", nil)
	b := s.create("B", nil)
	a1 := s.create("A.1", &a.ID)

	moved, err := s.service.ReparentTask(b.ID, ReparentInput{ParentID: &a.ID})
	s.Require().NoError(err)
	s.Require().NotNil(moved.ParentID)
	s.Equal(a.ID, *moved.ParentID)
	s.Equal([]string{"A.1", "B"}, s.order(&a.ID))

	index := 0
	_, err = s.service.ReparentTask(b.ID, ReparentInput{ParentID: &a.ID, Index: &index})
	s.Require().NoError(err)
	s.Equal([]string{"B", "A.1"}, s.order(&a.ID))

	_, err = s.service.ReparentTask(a.ID, ReparentInput{ParentID: &a1.ID})
	s.ErrorIs(err, tasktree.ErrInvalidParent)

	_, err = s.service.ReparentTask(a1.ID, ReparentInput{})
	s.Require().NoError(err)
	s.Equal([]string{"A", "A.1"}, s.order(nil))
}

func (s *TaskServiceTestSuite) TestDeleteTask_CascadesAndHides() {
	root := s.create("root", nil)
	child := s.create("child", &root.ID)
	grandchild := s.create("grandchild", &child.ID)
	s.create("other", nil)

	affected, err := s.service.DeleteTask(root.ID, s.member.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]uint64{root.ID, child.ID, grandchild.ID}, affected)

	s.Equal([]string{"other"}, s.order(nil))
	s.Empty(s.order(&root.ID))
	s.Empty(s.order(&child.ID))

	_, err = s.service.GetTask(grandchild.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.service.DeleteTask(root.ID, s.member.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	var stored models.Task
	s.Require().NoError(s.db.First(&stored, grandchild.ID).Error)
	s.True(stored.IsDeleted)
}

func (s *TaskServiceTestSuite) TestDeleteTask_Permissions() {
	task := s.create("mine", nil)
	other := seedUser(s.T(), s.db, "other")
	seedMember(s.T(), s.db, s.team.ID, other.ID, models.RoleMember)

	_, err := s.service.DeleteTask(task.ID, other.ID)
	s.ErrorIs(err, ErrTaskPermissionDenied)

	_, err = s.service.DeleteTask(task.ID, s.owner.ID)
	s.NoError(err)
}

func (s *TaskServiceTestSuite) TestUpdateTask_KeepsPosition() {
	task := s.create("A", nil)
	s.create("B", nil)

	title := "renamed"
	updated, err := s.service.UpdateTask(task.ID, UpdateTaskInput{Title: &title})
	s.Require().NoError(err)
	s.Equal("renamed", updated.Title)
	s.Equal(task.Position, updated.Position)

	empty := ""
	_, err = s.service.UpdateTask(task.ID, UpdateTaskInput{Title: &empty})
	s.ErrorIs(err, ErrTitleRequired)
}

func (s *TaskServiceTestSuite) TestToggleTaskStatus() {
	task := s.create("A", nil)

	done, err := s.service.ToggleTaskStatus(task.ID, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, done.Status)
	s.Require().NotNil(done.CompletedByID)
	s.Equal(s.owner.ID, *done.CompletedByID)
	s.NotNil(done.CompletedAt)

	todo, err := s.service.ToggleTaskStatus(task.ID, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusTodo, todo.Status)
	s.Nil(todo.CompletedByID)
}

func (s *TaskServiceTestSuite) TestAssignUsers() {
	task := s.create("A", nil)
	outsider := seedUser(s.T(), s.db, "outsider")

	updated, err := s.service.AssignUsers(AssignUsersInput{TaskID: task.ID, ActorID: s.member.ID, UserIDs: []uint64{s.owner.ID, s.owner.ID}})
	s.Require().NoError(err)
	s.Len(updated.Assignments, 2)

	_, err = s.service.AssignUsers(AssignUsersInput{TaskID: task.ID, ActorID: s.member.ID, UserIDs: []uint64{outsider.ID}})
	s.ErrorIs(err, ErrInvalidTaskAssignee)

	_, err = s.service.AssignUsers(AssignUsersInput{TaskID: task.ID, ActorID: s.member.ID})
	s.ErrorIs(err, ErrNoUserIDsProvided)

	updated, err = s.service.UnassignUsers(task.ID, s.member.ID, []uint64{s.owner.ID})
	s.Require().NoError(err)
	s.Len(updated.Assignments, 1)
}

func (s *TaskServiceTestSuite) TestSweepPositions() {
	a := s.create("A", nil)
	b := s.create("B", nil)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", b.ID).Update("position", a.Position).Error)

	repaired, err := s.service.SweepPositions()
	s.Require().NoError(err)
	s.Equal(1, repaired)
	s.Equal([]string{"A", "B"}, s.order(nil))

	repaired, err = s.service.SweepPositions()
	s.Require().NoError(err)
	s.Equal(0, repaired)
}

func (s *TaskServiceTestSuite) TestGenerateTasks_RequiresAIService() {
	_, err := s.service.GenerateTasks(context.Background(), GenerateTasksInput{Text: "buy milk", TeamID: s.team.ID, UserID: s.member.ID})
	s.ErrorIs(err, ErrAIServiceNotConfigured)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
