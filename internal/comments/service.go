package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"commentd/internal/models"
	"commentd/internal/sanitize"
	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"github.com/google/uuid"
)

// AttachmentInput is a blob reference returned by the external upload
// collaborator. The service only records the path; it never touches the blob.
type AttachmentInput struct {
	Filename    string
	Mimetype    string
	StoragePath string
}

// Config bundles the policy knobs the service enforces before any write.
type Config struct {
	DefaultLimit   int
	MaxAttachments int
}

// Service orchestrates the comment write pipeline and the cached read path.
//
// Writes follow validate → authorize → transact → commit → cache purge →
// cleanup dispatch. Failures before commit abort with no side effects;
// failures after commit (cache, queue) are logged and swallowed because the
// relational write is already durable — the cache self-heals via TTL and a
// missed dispatch leaves an orphaned blob at worst.
type Service struct {
	repo  Repository
	cache ListingCache
	pub   Publisher
	log   *logger.Logger
	cfg   Config
}

func NewService(repo Repository, cache ListingCache, pub Publisher, log *logger.Logger, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxAttachments <= 0 {
		cfg.MaxAttachments = 5
	}
	return &Service{repo: repo, cache: cache, pub: pub, log: log, cfg: cfg}
}

// List serves a listing request through the cache. On a hit the cached
// payload is returned verbatim without re-validation against the store; on a
// miss the store is queried and the cache populated. A read racing a write
// between commit and purge may observe stale data for at most the TTL —
// a documented consistency gap, bounded, not eliminated.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize(s.cfg.DefaultLimit)
	key := q.CacheKey()

	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx).WithMeta(utils.Map{"key": key, "error": err.Error()}).Logs("Listing cache read failed, falling through to store")
	} else if ok {
		var cached ListResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.log.Warn(ctx).WithMeta(utils.Map{"key": key}).Logs("Corrupt listing cache entry ignored")
	}

	data, total, err := s.repo.ListRoots(ctx, q)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list comments")
	}

	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	result := &ListResult{
		Data: data,
		Meta: Meta{Total: total, Page: q.Page, Pages: pages},
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, payload); err != nil {
			s.log.Warn(ctx).WithMeta(utils.Map{"key": key, "error": err.Error()}).Logs("Failed to populate listing cache")
		}
	}

	return result, nil
}

// Preview returns the sanitized form of the text without persisting anything.
func (s *Service) Preview(text string) string {
	return sanitize.Comment(text)
}

// Create sanitizes the text and inserts the comment together with its
// attachment rows in one transaction. A reply whose parent does not resolve
// at transaction time fails with NotFound and writes nothing.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, text string, parentID *uuid.UUID, files []AttachmentInput) (*models.Comment, error) {
	sanitized := sanitize.Comment(text)
	if strings.TrimSpace(sanitized) == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment text is empty after sanitization")
	}
	if err := s.checkAttachmentPolicy(files); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     sanitized,
		AuthorID: authorID,
		ParentID: parentID,
	}

	if err := s.repo.Create(ctx, comment, buildAttachments(files)); err != nil {
		if IsNotFound(err) {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Parent comment not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create comment")
	}

	s.purgeListings(ctx)

	created, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		// The row committed; return what we have rather than failing the call.
		return comment, nil
	}
	return created, nil
}

// Update replaces the comment's text and, when files is non-nil, its
// attachment set. Only the author may update; a mismatch never silently
// no-ops. Replaced blobs are dispatched for cleanup after commit.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, text *string, files []AttachmentInput) (*models.Comment, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Comment not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load comment")
	}
	if comment.AuthorID != userID {
		return nil, utils.NewError(utils.ErrUnauthorized.Code, "Not authorized to edit this comment")
	}

	updateText := text != nil
	if updateText {
		sanitized := sanitize.Comment(*text)
		if strings.TrimSpace(sanitized) == "" {
			return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment text is empty after sanitization")
		}
		comment.Text = sanitized
	}

	replace := files != nil
	if replace {
		if err := s.checkAttachmentPolicy(files); err != nil {
			return nil, err
		}
	}

	removed, err := s.repo.Update(ctx, comment, buildAttachments(files), updateText, replace)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update comment")
	}

	s.purgeListings(ctx)
	s.dispatchCleanup(ctx, removed)

	return comment, nil
}

// Delete removes the comment, cascading to its full descendant subtree, and
// dispatches every removed attachment blob for asynchronous cleanup. Only
// the author may delete.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return utils.NewError(utils.ErrNotFound.Code, "Comment not found")
		}
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load comment")
	}
	if comment.AuthorID != userID {
		return utils.NewError(utils.ErrForbidden.Code, "You are not authorized to delete this comment")
	}

	removed, err := s.repo.DeleteTree(ctx, id)
	if err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete comment")
	}

	s.purgeListings(ctx)
	s.dispatchCleanup(ctx, removed)

	return nil
}

func (s *Service) checkAttachmentPolicy(files []AttachmentInput) error {
	if len(files) > s.cfg.MaxAttachments {
		return utils.NewError(utils.ErrBadRequest.Code,
			fmt.Sprintf("At most %d attachments are allowed per comment", s.cfg.MaxAttachments))
	}
	for _, f := range files {
		if !utils.Contains(utils.AllowedAttachmentTypes, f.Mimetype) {
			return utils.NewError(utils.ErrBadRequest.Code,
				fmt.Sprintf("Attachment type %q is not allowed", f.Mimetype))
		}
	}
	return nil
}

// purgeListings invalidates the whole listing namespace. Issued only after
// commit; a failure here is logged, never surfaced, since the cache expires
// on its own.
func (s *Service) purgeListings(ctx context.Context) {
	if err := s.cache.Purge(ctx); err != nil {
		s.log.Warn(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Listing cache purge failed; stale entries will expire via TTL")
	}
}

// dispatchCleanup hands removed blob paths to the delete-job queue. A failed
// dispatch leaves orphaned blobs behind, which is accepted and logged.
func (s *Service) dispatchCleanup(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}
	if err := s.pub.PublishDelete(ctx, files); err != nil {
		s.log.Error(ctx).WithMeta(utils.Map{"files": strings.Join(files, ","), "error": err.Error()}).Logs("Failed to dispatch cleanup job; blobs orphaned")
	}
}

func buildAttachments(files []AttachmentInput) []models.Attachment {
	if len(files) == 0 {
		return nil
	}
	atts := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		atts = append(atts, models.Attachment{
			Filename:    f.Filename,
			Mimetype:    f.Mimetype,
			StoragePath: f.StoragePath,
		})
	}
	return atts
}
