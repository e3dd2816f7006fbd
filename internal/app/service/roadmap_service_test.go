package service

import (
	"context"
	"testing"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRoadmapServiceTest(t *testing.T) (RoadmapService, *gorm.DB) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	svc := NewRoadmapService(repository.NewRoadmapRepository(testDB))
	return svc, testDB
}

func testRoadmapInput() RoadmapInput {
	return RoadmapInput{
		Title:       "Go Backend Developer",
		Description: "From basics to production services",
		Level:       "beginner",
		Tags:        []string{"go", "backend"},
		Steps: []StepInput{
			{
				Title: "Language Basics",
				Topics: []TopicInput{
					{Title: "Syntax"},
					{Title: "Structs and Interfaces"},
				},
			},
			{
				Title: "Web Services",
				Topics: []TopicInput{
					{Title: "HTTP Handlers"},
				},
			},
		},
	}
}

func TestRoadmapService_CreateAndGet(t *testing.T) {
	svc, _ := setupRoadmapServiceTest(t)
	ctx := context.Background()

	created, err := svc.CreateRoadmap(ctx, testRoadmapInput())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.RoadmapStatic, created.RoadmapType)

	t.Run("Get without steps", func(t *testing.T) {
		roadmap, err := svc.GetRoadmap(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go Backend Developer", roadmap.Title)
		assert.Equal(t, []string{"go", "backend"}, []string(roadmap.Tags))
	})

	t.Run("Get with steps preserves order", func(t *testing.T) {
		roadmap, err := svc.GetRoadmapWithSteps(created.ID)
		require.NoError(t, err)
		require.Len(t, roadmap.Steps, 2)
		assert.Equal(t, "Language Basics", roadmap.Steps[0].Title)
		assert.Equal(t, 1, roadmap.Steps[0].StepOrder)
		require.Len(t, roadmap.Steps[0].Topics, 2)
		assert.Equal(t, "Syntax", roadmap.Steps[0].Topics[0].Title)
	})

	t.Run("Unknown roadmap", func(t *testing.T) {
		_, err := svc.GetRoadmap(9999)
		assert.ErrorIs(t, err, ErrRoadmapNotFound)
	})

	t.Run("List", func(t *testing.T) {
		roadmaps, err := svc.ListRoadmaps(ctx)
		require.NoError(t, err)
		assert.Len(t, roadmaps, 1)
	})
}

func TestRoadmapService_AddStep(t *testing.T) {
	svc, _ := setupRoadmapServiceTest(t)
	ctx := context.Background()

	created, err := svc.CreateRoadmap(ctx, testRoadmapInput())
	require.NoError(t, err)

	step, err := svc.AddStep(ctx, created.ID, StepInput{
		Title: "Databases",
		Topics: []TopicInput{
			{Title: "SQL Basics"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, step.StepOrder)

	roadmap, err := svc.GetRoadmapWithSteps(created.ID)
	require.NoError(t, err)
	require.Len(t, roadmap.Steps, 3)
	assert.Equal(t, "Databases", roadmap.Steps[2].Title)

	t.Run("Unknown roadmap", func(t *testing.T) {
		_, err := svc.AddStep(ctx, 9999, StepInput{Title: "Nowhere"})
		assert.ErrorIs(t, err, ErrRoadmapNotFound)
	})
}

func TestRoadmapService_Enroll(t *testing.T) {
	svc, testDB := setupRoadmapServiceTest(t)
	ctx := context.Background()
	student := createTestStudent(t, testDB, "enroll@example.com", "enrolluser")

	created, err := svc.CreateRoadmap(ctx, testRoadmapInput())
	require.NoError(t, err)

	enrolment, err := svc.Enroll(student.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", enrolment.Status)
	assert.Equal(t, 0, enrolment.ProgressPercentage)

	t.Run("Duplicate enrolment", func(t *testing.T) {
		_, err := svc.Enroll(student.ID, created.ID)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})

	t.Run("Unknown roadmap", func(t *testing.T) {
		_, err := svc.Enroll(student.ID, 9999)
		assert.ErrorIs(t, err, ErrRoadmapNotFound)
	})

	t.Run("List enrolments includes the roadmap", func(t *testing.T) {
		enrolments, err := svc.ListEnrolments(student.ID)
		require.NoError(t, err)
		require.Len(t, enrolments, 1)
		require.NotNil(t, enrolments[0].Roadmap)
		assert.Equal(t, "Go Backend Developer", enrolments[0].Roadmap.Title)
	})
}

func TestRoadmapService_CompleteTopic(t *testing.T) {
	svc, testDB := setupRoadmapServiceTest(t)
	ctx := context.Background()
	student := createTestStudent(t, testDB, "topics@example.com", "topicsuser")

	created, err := svc.CreateRoadmap(ctx, testRoadmapInput())
	require.NoError(t, err)
	roadmap, err := svc.GetRoadmapWithSteps(created.ID)
	require.NoError(t, err)

	topicIDs := []uint{
		roadmap.Steps[0].Topics[0].ID,
		roadmap.Steps[0].Topics[1].ID,
		roadmap.Steps[1].Topics[0].ID,
	}

	t.Run("Not enrolled", func(t *testing.T) {
		_, err := svc.CompleteTopic(student.ID, topicIDs[0])
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	_, err = svc.Enroll(student.ID, created.ID)
	require.NoError(t, err)

	t.Run("Unknown topic", func(t *testing.T) {
		_, err := svc.CompleteTopic(student.ID, 9999)
		assert.ErrorIs(t, err, ErrTopicNotFound)
	})

	t.Run("Progress accumulates", func(t *testing.T) {
		enrolment, err := svc.CompleteTopic(student.ID, topicIDs[0])
		require.NoError(t, err)
		assert.Equal(t, 33, enrolment.ProgressPercentage)
		assert.Equal(t, "active", enrolment.Status)

		// Completing the same topic again does not double count
		enrolment, err = svc.CompleteTopic(student.ID, topicIDs[0])
		require.NoError(t, err)
		assert.Equal(t, 33, enrolment.ProgressPercentage)

		enrolment, err = svc.CompleteTopic(student.ID, topicIDs[1])
		require.NoError(t, err)
		assert.Equal(t, 66, enrolment.ProgressPercentage)
	})

	t.Run("Last topic closes the enrolment", func(t *testing.T) {
		enrolment, err := svc.CompleteTopic(student.ID, topicIDs[2])
		require.NoError(t, err)
		assert.Equal(t, 100, enrolment.ProgressPercentage)
		assert.Equal(t, "completed", enrolment.Status)
		require.NotNil(t, enrolment.CompletedAt)
	})
}
