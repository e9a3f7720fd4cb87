package v1

import (
	"context"

	"commentd/internal/auth"
	"commentd/internal/comments"
	"commentd/internal/models"
	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CommentService is the slice of the comment service the handlers need.
type CommentService interface {
	List(ctx context.Context, q comments.ListQuery) (*comments.ListResult, error)
	Preview(text string) string
	Create(ctx context.Context, authorID uuid.UUID, text string, parentID *uuid.UUID, files []comments.AttachmentInput) (*models.Comment, error)
	Update(ctx context.Context, id, userID uuid.UUID, text *string, files []comments.AttachmentInput) (*models.Comment, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// CommentsAPI exposes the comment operations over HTTP.
type CommentsAPI struct {
	Service   CommentService
	Logger    *logger.Logger
	Validator *utils.Validator
}

func NewCommentsAPI(svc CommentService, log *logger.Logger) *CommentsAPI {
	return &CommentsAPI{
		Service:   svc,
		Logger:    log,
		Validator: utils.NewValidator(),
	}
}

type attachmentInput struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	Mimetype    string `json:"mimetype" validate:"required,attachment_type"`
	StoragePath string `json:"storage_path" validate:"required,max=512"`
}

type createCommentInput struct {
	Text        string            `json:"text" validate:"required"`
	ParentID    *string           `json:"parent_id" validate:"omitempty,uuid"`
	Attachments []attachmentInput `json:"attachments" validate:"omitempty,max=5,dive"`
}

type updateCommentInput struct {
	Text        *string            `json:"text" validate:"omitempty,min=1,max=1000"`
	Attachments *[]attachmentInput `json:"attachments" validate:"omitempty,max=5,dive"`
}

// List handles GET /comments. Invalid paging values clamp to defaults
// inside the service; unknown sort/order fall back silently.
func (h *CommentsAPI) List(c *fiber.Ctx) error {
	q := comments.ListQuery{
		Page:     c.QueryInt("page"),
		Limit:    c.QueryInt("limit"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Text:     c.Query("text"),
		Username: c.Query("username"),
		Email:    c.Query("email"),
	}

	result, err := h.Service.List(c.UserContext(), q)
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.JSON(result)
}

// Create handles POST /comments.
func (h *CommentsAPI) Create(c *fiber.Ctx) error {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, "User not authenticated"))
	}

	in := new(createCommentInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		h.Logger.Warn(c.UserContext()).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to parse create comment body")
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if errs := h.Validator.Validate(in); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	var parentID *uuid.UUID
	if in.ParentID != nil {
		id, err := uuid.Parse(*in.ParentID)
		if err != nil {
			return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid parent comment id"))
		}
		parentID = &id
	}

	comment, err := h.Service.Create(c.UserContext(), userID, in.Text, parentID, toAttachmentInputs(in.Attachments))
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// Update handles PATCH /comments/:id. Only the author may update.
func (h *CommentsAPI) Update(c *fiber.Ctx) error {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, "User not authenticated"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid comment id"))
	}

	in := new(updateCommentInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		h.Logger.Warn(c.UserContext()).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to parse update comment body")
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if errs := h.Validator.Validate(in); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	var files []comments.AttachmentInput
	if in.Attachments != nil {
		files = toAttachmentInputs(*in.Attachments)
		if files == nil {
			files = []comments.AttachmentInput{}
		}
	}

	comment, err := h.Service.Update(c.UserContext(), id, userID, in.Text, files)
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.JSON(comment)
}

// Delete handles DELETE /comments/:id. Only the author may delete.
func (h *CommentsAPI) Delete(c *fiber.Ctx) error {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrUnauthorized.Code, "User not authenticated"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid comment id"))
	}

	if err := h.Service.Delete(c.UserContext(), id, userID); err != nil {
		return utils.SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment successfully deleted"})
}

// Preview handles POST /comments/preview: returns the sanitized text without
// persisting anything.
func (h *CommentsAPI) Preview(c *fiber.Ctx) error {
	in := new(createCommentInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	return c.JSON(fiber.Map{"preview": h.Service.Preview(in.Text)})
}

func toAttachmentInputs(in []attachmentInput) []comments.AttachmentInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]comments.AttachmentInput, 0, len(in))
	for _, a := range in {
		out = append(out, comments.AttachmentInput{
			Filename:    a.Filename,
			Mimetype:    a.Mimetype,
			StoragePath: a.StoragePath,
		})
	}
	return out
}
