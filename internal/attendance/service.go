package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/geo"
	"campusattend/internal/qrpayload"
)

// ErrAlreadyMarked is returned when a user marks the same course twice in
// one day.
var ErrAlreadyMarked = errors.New("attendance already marked for today")

// ErrCourseNotFound is returned for operations against an unknown course.
var ErrCourseNotFound = errors.New("course not found")

// Recorder is the persistence surface the service needs. *Repository
// satisfies it; tests plug in fakes.
type Recorder interface {
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	RecordForDay(ctx context.Context, userID, classID string, day time.Time) (*Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
	InsertCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	CountCourses(ctx context.Context) (int, error)
}

// Service owns attendance marking and the course catalog.
type Service struct {
	repo Recorder
	now  func() time.Time
}

// NewService creates a service backed by a recorder.
func NewService(repo Recorder) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Mark records one verified attendance claim. A user can mark each course
// at most once per UTC day; a second mark fails with ErrAlreadyMarked.
func (s *Service) Mark(ctx context.Context, userID, classID string, method Method, loc *geo.Position) (Record, error) {
	if userID == "" || classID == "" {
		return Record{}, errors.New("user and class required")
	}
	if !method.Valid() {
		return Record{}, fmt.Errorf("unknown attendance method %q", method)
	}
	course, err := s.repo.GetCourse(ctx, classID)
	if err != nil {
		return Record{}, err
	}
	if course == nil {
		return Record{}, ErrCourseNotFound
	}
	existing, err := s.repo.RecordForDay(ctx, userID, classID, s.now())
	if err != nil {
		return Record{}, err
	}
	if existing != nil {
		return Record{}, ErrAlreadyMarked
	}
	return s.repo.InsertRecord(ctx, Record{
		UserID:      userID,
		ClassID:     classID,
		Method:      method,
		CheckInTime: s.now(),
		Location:    loc,
		Status:      StatusPresent,
	})
}

// History returns a user's records, newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Courses returns the catalog.
func (s *Service) Courses(ctx context.Context) ([]Course, error) {
	return s.repo.ListCourses(ctx)
}

// CreateCourse adds a catalog entry.
func (s *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if c.Name == "" || c.Code == "" {
		return Course{}, errors.New("course name and code required")
	}
	return s.repo.InsertCourse(ctx, c)
}

// CourseQR produces the payload string a course owner displays for
// scanning.
func (s *Service) CourseQR(ctx context.Context, courseID string) (qrpayload.Payload, string, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return qrpayload.Payload{}, "", err
	}
	if course == nil {
		return qrpayload.Payload{}, "", ErrCourseNotFound
	}
	text, err := qrpayload.Encode(course.ID, course.Code)
	if err != nil {
		return qrpayload.Payload{}, "", err
	}
	payload, err := qrpayload.Decode(text)
	if err != nil {
		return qrpayload.Payload{}, "", err
	}
	return payload, text, nil
}

// SeedCourses loads a small sample catalog when the table is empty, so a
// fresh dev environment has something to mark attendance against.
func (s *Service) SeedCourses(ctx context.Context) error {
	n, err := s.repo.CountCourses(ctx)
	if err != nil || n > 0 {
		return err
	}
	samples := []Course{
		{Name: "Introduction to Computer Science", Code: "CS101", Instructor: "system", Department: "Computer Science", Credits: 3},
		{Name: "Data Structures and Algorithms", Code: "CS201", Instructor: "system", Department: "Computer Science", Credits: 4},
		{Name: "Database Management Systems", Code: "CS301", Instructor: "system", Department: "Computer Science", Credits: 3},
		{Name: "Web Development", Code: "CS401", Instructor: "system", Department: "Computer Science", Credits: 3},
	}
	for _, c := range samples {
		if _, err := s.repo.InsertCourse(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
