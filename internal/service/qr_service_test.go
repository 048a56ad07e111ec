package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

func TestQRPayload(t *testing.T) {
	student := &models.Student{Name: "이서연", Phone: "010-1234-5678"}
	assert.Equal(t, "이서연/5678", Payload(student))
}

func TestQRIssueCard(t *testing.T) {
	students := &mockSummaryStudents{student: &models.Student{ID: "s1", Name: "이서연", Phone: "010-1234-5678"}}
	service := NewQRService(students, zap.NewNop())

	card, err := service.IssueCard(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "이서연/5678", card.Payload)
	assert.NotEmpty(t, card.PNG)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, card.PNG[:4])
}

func TestQRIssueCardNoPhone(t *testing.T) {
	students := &mockSummaryStudents{student: &models.Student{ID: "s1", Name: "이서연"}}
	service := NewQRService(students, zap.NewNop())

	_, err := service.IssueCard(context.Background(), "s1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
