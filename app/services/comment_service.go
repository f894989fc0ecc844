package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"techporium/app/metrics"
	"techporium/app/models"
	"techporium/app/repositories"
)

// Rejection reasons reported to the submitter.
const (
	ReasonMissingPost = "post id not found"
	ReasonName        = "name format not valid"
	ReasonEmail       = "email format not valid"
	ReasonComment     = "comment format not valid"
	ReasonBadRequest  = "invalid request body"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a submission rejected before anything was written.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps a failure of the comment store.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return "store comment: " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// Submit validates and sanitizes a submission, then writes it as a new
// unapproved comment. Checks run in order and the first failure wins.
func (s *CommentService) Submit(ctx context.Context, sub models.CommentSubmission) (*models.CommentAck, error) {
	nc, err := sanitize(sub)
	if err != nil {
		metrics.CommentSubmissions.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if _, err := s.commentRepo.Create(ctx, nc); err != nil {
		metrics.CommentSubmissions.WithLabelValues("failed").Inc()
		return nil, &StoreError{Err: err}
	}
	metrics.CommentSubmissions.WithLabelValues("accepted").Inc()

	return &models.CommentAck{
		ID:    nc.Post.Ref,
		Name:  nc.Name,
		Email: nc.Email,
	}, nil
}

func sanitize(sub models.CommentSubmission) (*models.NewComment, error) {
	if sub.ID == "" {
		return nil, &ValidationError{Reason: ReasonMissingPost}
	}
	name := stripWhitespace(sub.Name)
	if name == "" {
		return nil, &ValidationError{Reason: ReasonName}
	}
	email := stripWhitespace(sub.Email)
	if email == "" {
		return nil, &ValidationError{Reason: ReasonEmail}
	}
	comment := trimWhitespace(sub.Comment)
	if comment == "" {
		return nil, &ValidationError{Reason: ReasonComment}
	}
	return models.NewCommentFor(sub.ID, name, email, comment), nil
}

// isSpace matches the JavaScript \s class: Unicode White_Space without U+0085,
// plus the byte order mark U+FEFF.
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return r == '\uFEFF' || unicode.IsSpace(r)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, s)
}

func trimWhitespace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
