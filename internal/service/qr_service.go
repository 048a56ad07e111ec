package service

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

type qrStudentSource interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

// QRCard is one issued check-in card.
type QRCard struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Payload     string `json:"payload"`
	PNG         []byte `json:"-"`
}

// QRService issues the printable check-in cards students scan at the kiosk.
type QRService struct {
	students qrStudentSource
	size     int
	logger   *zap.Logger
}

// NewQRService constructs a QRService.
func NewQRService(students qrStudentSource, logger *zap.Logger) *QRService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRService{students: students, size: 256, logger: logger}
}

// Payload renders the scan payload for a student: name plus the last four
// phone digits, enough to disambiguate without embedding the full number.
func Payload(student *models.Student) string {
	return fmt.Sprintf("%s/%s", student.Name, student.PhoneSuffix())
}

// IssueCard encodes the student's payload into a PNG QR image.
func (s *QRService) IssueCard(ctx context.Context, studentID string) (*QRCard, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.PhoneSuffix() == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no phone number on file")
	}

	payload := Payload(student)
	png, err := qrcode.Encode(payload, qrcode.Medium, s.size)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode QR card")
	}

	return &QRCard{
		StudentID:   student.ID,
		StudentName: student.Name,
		Payload:     payload,
		PNG:         png,
	}, nil
}
