package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
)

type mockSurveyRepo struct {
	surveys   map[string]models.Survey
	questions map[string][]models.SurveyQuestion
	responses map[string][]models.SurveyResponse
}

func (m *mockSurveyRepo) List(ctx context.Context) ([]models.Survey, error) {
	var list []models.Survey
	for _, s := range m.surveys {
		list = append(list, s)
	}
	return list, nil
}

func (m *mockSurveyRepo) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	if s, ok := m.surveys[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSurveyRepo) ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error) {
	return m.questions[surveyID], nil
}

func (m *mockSurveyRepo) CreateWithQuestions(ctx context.Context, survey *models.Survey, questions []models.SurveyQuestion) error {
	if m.surveys == nil {
		m.surveys = make(map[string]models.Survey)
	}
	if m.questions == nil {
		m.questions = make(map[string][]models.SurveyQuestion)
	}
	if survey.ID == "" {
		survey.ID = "new-survey"
	}
	m.surveys[survey.ID] = *survey
	m.questions[survey.ID] = questions
	return nil
}

func (m *mockSurveyRepo) CountResponses(ctx context.Context, surveyID string) (int, error) {
	return len(m.responses[surveyID]), nil
}

func (m *mockSurveyRepo) CountQuestions(ctx context.Context, surveyID string) (int, error) {
	return len(m.questions[surveyID]), nil
}

func (m *mockSurveyRepo) HasResponded(ctx context.Context, surveyID, userID string) (bool, error) {
	for _, r := range m.responses[surveyID] {
		if r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSurveyRepo) CreateResponse(ctx context.Context, response *models.SurveyResponse, answers []models.SurveyAnswer) error {
	if m.responses == nil {
		m.responses = make(map[string][]models.SurveyResponse)
	}
	m.responses[response.SurveyID] = append(m.responses[response.SurveyID], *response)
	return nil
}

func (m *mockSurveyRepo) Delete(ctx context.Context, id string) error {
	delete(m.surveys, id)
	return nil
}

func TestSurveyCreateValidatesQuestionShapes(t *testing.T) {
	svc := NewSurveyService(&mockSurveyRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "하고 싶은 말", Type: models.QuestionText, Options: []string{"붙으면 안 됨"}},
		},
	}, "admin-1")
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "수업은 어땠나요?", Type: models.QuestionSingleChoice, Options: []string{"좋았다"}},
		},
	}, "admin-1")
	require.Error(t, err)
}

func TestSurveyCreateAndGet(t *testing.T) {
	repo := &mockSurveyRepo{}
	svc := NewSurveyService(repo, nil, nil)

	survey, err := svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "수업은 어땠나요?", Type: models.QuestionSingleChoice, Options: []string{"좋았다", "아쉬웠다"}},
			{Text: "하고 싶은 말", Type: models.QuestionText},
		},
	}, "admin-1")
	require.NoError(t, err)
	assert.True(t, survey.IsActive)

	stored, questions, err := svc.Get(context.Background(), survey.ID)
	require.NoError(t, err)
	assert.Equal(t, "만족도", stored.Title)
	require.Len(t, questions, 2)
	assert.Len(t, questions[0].Options, 2)
}

func TestSurveyRespondOncePerUser(t *testing.T) {
	repo := &mockSurveyRepo{}
	svc := NewSurveyService(repo, nil, nil)

	survey, err := svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "하고 싶은 말", Type: models.QuestionText},
		},
	}, "admin-1")
	require.NoError(t, err)

	text := "좋아요"
	req := RespondRequest{Answers: []SurveyAnswerRequest{{QuestionID: "q-1", Text: &text}}}

	require.NoError(t, svc.Respond(context.Background(), survey.ID, "user-1", req))
	require.Error(t, svc.Respond(context.Background(), survey.ID, "user-1", req))
	require.NoError(t, svc.Respond(context.Background(), survey.ID, "user-2", req))
}

func TestSurveyRespondRequiresAnswerContent(t *testing.T) {
	repo := &mockSurveyRepo{}
	svc := NewSurveyService(repo, nil, nil)

	survey, err := svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "하고 싶은 말", Type: models.QuestionText},
		},
	}, "admin-1")
	require.NoError(t, err)

	err = svc.Respond(context.Background(), survey.ID, "user-1", RespondRequest{
		Answers: []SurveyAnswerRequest{{QuestionID: "q-1"}},
	})
	require.Error(t, err)
}

func TestSurveyListStats(t *testing.T) {
	repo := &mockSurveyRepo{}
	svc := NewSurveyService(repo, nil, nil)

	survey, err := svc.Create(context.Background(), CreateSurveyRequest{
		Title: "만족도",
		Questions: []SurveyQuestionRequest{
			{Text: "하고 싶은 말", Type: models.QuestionText},
		},
	}, "admin-1")
	require.NoError(t, err)

	text := "좋아요"
	require.NoError(t, svc.Respond(context.Background(), survey.ID, "user-1", RespondRequest{
		Answers: []SurveyAnswerRequest{{QuestionID: "q-1", Text: &text}},
	}))

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].QuestionCount)
	assert.Equal(t, 1, list[0].ResponseCount)
	assert.True(t, list[0].Responded)

	other, err := svc.List(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, other[0].Responded)
}
