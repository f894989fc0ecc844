package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"techporium/app/contentstore"
	"techporium/app/models"
	"techporium/app/services"

	"github.com/gorilla/mux"
)

const maxCommentBody = 1 << 20

// Response messages of the comment API.
const (
	MessageSubmitted = "Submitted"
	MessageFailed    = "Could not submit comment"
)

// CommentResponse is the body of every comment API response. Err holds the
// acknowledgement on success, the reason on rejection and the store error on
// failure.
type CommentResponse struct {
	Message string      `json:"message"`
	Err     interface{} `json:"err,omitempty"`
}

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
	posts          *PostController
	logger         *slog.Logger
}

// NewCommentController creates a new CommentController. Form submissions that
// fail are re-rendered through posts.
func NewCommentController(commentService *services.CommentService, posts *PostController, logger *slog.Logger) *CommentController {
	return &CommentController{
		commentService: commentService,
		posts:          posts,
		logger:         logger,
	}
}

// Create handles a JSON comment submission. The body is read as JSON whatever
// its content type.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommentBody))
	if err != nil {
		sendJSON(w, http.StatusBadRequest, CommentResponse{Message: MessageFailed, Err: services.ReasonBadRequest})
		return
	}
	var sub models.CommentSubmission
	if err := json.Unmarshal(body, &sub); err != nil {
		sendJSON(w, http.StatusBadRequest, CommentResponse{Message: MessageFailed, Err: services.ReasonBadRequest})
		return
	}

	ack, err := cc.commentService.Submit(r.Context(), sub)
	if err != nil {
		status, detail := cc.failure(r, sub, err)
		sendJSON(w, status, CommentResponse{Message: MessageFailed, Err: detail})
		return
	}
	sendJSON(w, http.StatusOK, CommentResponse{Message: MessageSubmitted, Err: ack})
}

// SubmitForm handles the comment form of a post page
func (cc *CommentController) SubmitForm(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	r.Body = http.MaxBytesReader(w, r.Body, maxCommentBody)
	if err := r.ParseForm(); err != nil {
		cc.posts.RenderForm(w, r, slug, http.StatusBadRequest, models.CommentSubmission{}, services.ReasonBadRequest)
		return
	}

	sub := models.CommentSubmission{
		ID:      r.PostForm.Get("_id"),
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Comment: r.PostForm.Get("comment"),
	}
	if _, err := cc.commentService.Submit(r.Context(), sub); err != nil {
		status, detail := cc.failure(r, sub, err)
		reason, ok := detail.(string)
		if !ok || status != http.StatusBadRequest {
			reason = MessageFailed
		}
		cc.posts.RenderForm(w, r, slug, status, sub, reason)
		return
	}

	http.Redirect(w, r, "/post/"+url.PathEscape(slug)+"?submitted=true", http.StatusSeeOther)
}

// failure maps a submission error to a status and the err detail of the response
func (cc *CommentController) failure(r *http.Request, sub models.CommentSubmission, err error) (int, interface{}) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Reason
	}

	cc.logger.ErrorContext(r.Context(), "comment submission failed",
		slog.String("post", sub.ID),
		slog.Any("error", err),
	)
	var storeErr *contentstore.Error
	if errors.As(err, &storeErr) {
		return http.StatusInternalServerError, storeErr
	}
	var serr *services.StoreError
	if errors.As(err, &serr) {
		return http.StatusInternalServerError, serr.Err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}
